// Package document provides a line-oriented structural view over YAML workflow
// files. It indexes lines by indentation and tag without building an object
// model, so untouched content renders back byte-for-byte.
package document
