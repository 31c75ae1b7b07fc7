package suggest

// DefaultCatalog is the built-in suggestion catalog, used when the content
// catalog does not ship one. Order is fixed and preserved in results.
func DefaultCatalog() []Suggestion {
	return []Suggestion{
		{
			ID:          "undefined-variable",
			Category:    CategoryError,
			Title:       "Undefined variable",
			Description: "A variable is used before it has been declared or assigned.",
			Solution:    "Declare the variable before use and check the spelling of its name.",
			CodeExample: "let count = 0;\nconsole.log(count); // declare first, then use",
			Keywords:    []string{"undefined", "not defined", "referenceerror", "declare"},
			CodeMarkers: []string{"undefined"},
		},
		{
			ID:          "null-property-access",
			Category:    CategoryError,
			Title:       "Reading a property of null",
			Description: "Accessing a property on a value that is null or undefined throws at runtime.",
			Solution:    "Guard the access with a null check or optional chaining before dereferencing.",
			CodeExample: "const name = user?.profile?.name ?? \"anonymous\";",
			Keywords:    []string{"null", "property", "cannot read", "typeerror"},
			CodeMarkers: []string{"null."},
		},
		{
			ID:          "infinite-loop",
			Category:    CategoryWarning,
			Title:       "Infinite loop",
			Description: "A loop whose exit condition never becomes false keeps the program busy forever.",
			Solution:    "Make sure the loop variable changes toward the exit condition on every iteration.",
			CodeExample: "for (let i = 0; i < items.length; i++) {\n  // i++ must actually run\n}",
			Keywords:    []string{"loop", "infinite", "hangs", "freezes", "stuck"},
			CodeMarkers: []string{"while (true)", "while(true)"},
		},
		{
			ID:          "index-out-of-bounds",
			Category:    CategoryWarning,
			Title:       "Array index out of bounds",
			Description: "Reading past the end of an array yields undefined and usually hides an off-by-one.",
			Solution:    "Iterate with i < array.length and double-check boundary arithmetic.",
			CodeExample: "for (let i = 0; i < arr.length; i++) {\n  use(arr[i]);\n}",
			Keywords:    []string{"index", "bounds", "off by one", "out of range"},
			CodeMarkers: []string{"length + 1", "<= arr.length"},
		},
	}
}
