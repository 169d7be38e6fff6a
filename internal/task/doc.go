// Package task holds the pure in-memory task model: tasks, the ID-indexed
// collection with gap-reusing ID assignment, and natural-language date
// parsing. Persistence lives in the storage package.
package task
