// Package component defines the lifecycle interface shared by long-running
// pieces of pubqueue, most notably executor loops.
//
// A Registry starts components in registration order and stops them in
// reverse, so a tool that owns several loops can bring them up and down
// deterministically.
package component
