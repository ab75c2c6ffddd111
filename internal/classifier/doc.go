// Package classifier assigns exactly one Pattern to a workflow document for a
// migration target: which trigger or docker-publish shape the file is in, the
// positions of the sections a rule will edit, and auxiliary facts such as
// schedule presence and indentation width.
package classifier
