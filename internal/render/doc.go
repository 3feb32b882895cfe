// Package render provides the renderers the engine hands models to.
//
// TemplateRenderer executes html/template files below a template root;
// ComponentRenderer executes templ components registered by name. Both log a
// failing render with the template name and return the error to the engine,
// which omits the task's outputs.
package render
