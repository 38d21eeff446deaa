// Package logtail reads the end of the client's JSON log file.
//
// Read extracts the last N lines with a fixed-size ring buffer, so large
// files are streamed rather than loaded. Tail decodes those lines back into
// Entry values using the key names the logging package writes, filters them
// by level and keeps anything that is not JSON as a raw line.
package logtail
