// Package discovery locates workflow files beneath directory roots.
package discovery
