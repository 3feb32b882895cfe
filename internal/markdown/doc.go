// Package markdown is the Markdown generator: it turns *.md sources into
// Page models rendered through the site layout.
//
// Sources may start with YAML front matter delimited by "---" lines. The body
// is converted with goldmark (GitHub-flavored extensions, automatic heading
// identifiers) and every page carries an mdfp content fingerprint.
package markdown
