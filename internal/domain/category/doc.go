// Package category loads named file-category definitions from YAML or
// built-in defaults. It answers which categories exist and which
// extensions belong to each; classification policy lives elsewhere.
package category
