package manifest

import (
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/tnhu/wpm/pkg/route"
)

// Guard is a compiled enter guard.
type Guard struct {
	expr string
	prg  cel.Program
}

var guardEnv *cel.Env

func init() {
	env, err := cel.NewEnv(
		cel.Variable("args", cel.MapType(cel.StringType, cel.StringType)),
		cel.Variable("query", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("hash", cel.StringType),
	)
	if err != nil {
		panic(fmt.Sprintf("manifest: guard environment: %v", err))
	}
	guardEnv = env
}

// CompileGuard compiles expr, which must evaluate to a bool.
func CompileGuard(expr string) (*Guard, error) {
	ast, issues := guardEnv.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("guard %q has type %s, want bool", expr, ast.OutputType())
	}
	prg, err := guardEnv.Program(ast)
	if err != nil {
		return nil, err
	}
	return &Guard{expr: expr, prg: prg}, nil
}

// String returns the guard expression.
func (g *Guard) String() string { return g.expr }

// Allow evaluates the guard against the args, query and hash of data.
func (g *Guard) Allow(data *route.Data) (bool, error) {
	out, _, err := g.prg.Eval(map[string]any{
		"args":  data.Args(),
		"query": data.QueryParams(),
		"hash":  data.Hash(),
	})
	if err != nil {
		return false, fmt.Errorf("guard %q: %w", g.expr, err)
	}
	ok, isBool := out.Value().(bool)
	if !isBool {
		return false, fmt.Errorf("guard %q returned %T", g.expr, out.Value())
	}
	return ok, nil
}
