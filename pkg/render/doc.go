// Package render compiles and executes the Handlebars templates routes
// render with.
//
// Templates are registered by id, either one at a time or by loading a
// directory of .hbs files. A route's template is executed with its data
// bag, so templates address args, queryParams, hash, model and i18n:
//
//	<h1>{{i18n.title}}</h1>
//	{{#each model.items}}<li>{{name}}</li>{{/each}}
//	<section outlet></section>
package render
