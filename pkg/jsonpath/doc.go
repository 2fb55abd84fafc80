// Package jsonpath evaluates JSONPath selectors over decoded JSON values and
// over live object graphs.
//
// Supported syntax:
//
//	$                 root
//	.name ['name']    member
//	.* [*]            all children
//	..name ..*        recursive descent
//	[0] [-1] [0,2]    index and index union
//	['a','b']         member union
//	[1:3] [::2]       slice
//	[?(@.x > 1)]      filter with == != < <= > >= && || ! and parentheses
//
// Values may be map[string]any, []any, or any type implementing [Object],
// which lets a selector walk resources whose fields hold pointers to other
// resources. Recursive descent tracks visited objects, so selectors over
// cyclic graphs terminate.
package jsonpath
