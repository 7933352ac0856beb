// Package conductor resolves the runtime configuration of a device test session.
// A YAML source is folded layer by layer into a single Config: the generic
// defaults block, the platform specific defaults block (ios or android) and
// then every active scheme block in the order it was selected. Override
// variables supplied by the caller take precedence over the file for the
// platform name and the scheme list, and complete ${NAME} tokens inside values.
package conductor
