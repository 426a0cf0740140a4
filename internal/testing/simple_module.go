// Package testing exposes a small set of native assertion functions so
// Sentra scripts can drive their own test suites, the same way the array
// storage engine's own Go tests assert on shapes and transitions.
package testing

import (
	"fmt"
	"strings"

	"arrayspec/internal/vm"
)

// GetSimpleTestFunctions returns the assert_* builtins and a test_summary
// reporter, sharing one pass/fail tally across every call returned from a
// single invocation (mirroring a fresh counter per test-running script).
func GetSimpleTestFunctions() map[string]*vm.NativeFunction {
	testsPassed := 0
	testsFailed := 0

	return map[string]*vm.NativeFunction{
		"assert": {
			Name:  "assert",
			Arity: 2,
			Function: func(_ *vm.VM, args []vm.Value) (vm.Value, error) {
				condition := vm.ToBool(args[0])
				message := vm.ToString(args[1])

				if !condition {
					testsFailed++
					return false, fmt.Errorf("assertion failed: %s", message)
				}
				testsPassed++
				return true, nil
			},
		},

		"assert_equal": {
			Name:  "assert_equal",
			Arity: 3,
			Function: func(_ *vm.VM, args []vm.Value) (vm.Value, error) {
				expected := args[0]
				actual := args[1]
				message := vm.ToString(args[2])

				if !vm.ValuesEqual(expected, actual) {
					testsFailed++
					return false, fmt.Errorf("assert_equal failed: %s\n  expected: %v\n  actual:   %v",
						message, expected, actual)
				}
				testsPassed++
				return true, nil
			},
		},

		"assert_not_equal": {
			Name:  "assert_not_equal",
			Arity: 3,
			Function: func(_ *vm.VM, args []vm.Value) (vm.Value, error) {
				expected := args[0]
				actual := args[1]
				message := vm.ToString(args[2])

				if vm.ValuesEqual(expected, actual) {
					testsFailed++
					return false, fmt.Errorf("assert_not_equal failed: %s\n  values are equal: %v",
						message, expected)
				}
				testsPassed++
				return true, nil
			},
		},

		"assert_true": {
			Name:  "assert_true",
			Arity: 2,
			Function: func(_ *vm.VM, args []vm.Value) (vm.Value, error) {
				condition := vm.ToBool(args[0])
				message := vm.ToString(args[1])

				if !condition {
					testsFailed++
					return false, fmt.Errorf("assert_true failed: %s", message)
				}
				testsPassed++
				return true, nil
			},
		},

		"assert_false": {
			Name:  "assert_false",
			Arity: 2,
			Function: func(_ *vm.VM, args []vm.Value) (vm.Value, error) {
				condition := vm.ToBool(args[0])
				message := vm.ToString(args[1])

				if condition {
					testsFailed++
					return false, fmt.Errorf("assert_false failed: %s", message)
				}
				testsPassed++
				return true, nil
			},
		},

		"assert_nil": {
			Name:  "assert_nil",
			Arity: 2,
			Function: func(_ *vm.VM, args []vm.Value) (vm.Value, error) {
				value := args[0]
				message := vm.ToString(args[1])

				if value != nil {
					testsFailed++
					return false, fmt.Errorf("assert_nil failed: %s\n  value is not nil: %v",
						message, value)
				}
				testsPassed++
				return true, nil
			},
		},

		"assert_not_nil": {
			Name:  "assert_not_nil",
			Arity: 2,
			Function: func(_ *vm.VM, args []vm.Value) (vm.Value, error) {
				value := args[0]
				message := vm.ToString(args[1])

				if value == nil {
					testsFailed++
					return false, fmt.Errorf("assert_not_nil failed: %s\n  value is nil", message)
				}
				testsPassed++
				return true, nil
			},
		},

		"assert_contains": {
			Name:  "assert_contains",
			Arity: 3,
			Function: func(_ *vm.VM, args []vm.Value) (vm.Value, error) {
				container := args[0]
				item := args[1]
				message := vm.ToString(args[2])

				if arr, ok := container.(*vm.Array); ok {
					for _, elem := range arr.Elements() {
						if vm.ValuesEqual(elem, item) {
							testsPassed++
							return true, nil
						}
					}
					testsFailed++
					return false, fmt.Errorf("assert_contains failed: %s\n  array does not contain: %v",
						message, item)
				}

				if str, ok := container.(string); ok {
					itemStr := vm.ToString(item)
					if strings.Contains(str, itemStr) {
						testsPassed++
						return true, nil
					}
					testsFailed++
					return false, fmt.Errorf("assert_contains failed: %s\n  string %q does not contain %q",
						message, str, itemStr)
				}

				testsFailed++
				return false, fmt.Errorf("assert_contains: unsupported container type %s", vm.ValueType(container))
			},
		},

		"test_summary": {
			Name:  "test_summary",
			Arity: 0,
			Function: func(_ *vm.VM, args []vm.Value) (vm.Value, error) {
				total := testsPassed + testsFailed
				fmt.Println(strings.Repeat("=", 60))
				fmt.Println("Test Results Summary")
				fmt.Println(strings.Repeat("=", 60))
				fmt.Printf("Total:  %d\n", total)
				fmt.Printf("Passed: %d\n", testsPassed)
				if testsFailed > 0 {
					fmt.Printf("Failed: %d\n", testsFailed)
				}

				result := vm.NewMap()
				result.Set("total", float64(total))
				result.Set("passed", float64(testsPassed))
				result.Set("failed", float64(testsFailed))
				result.Set("success", testsFailed == 0)
				return result, nil
			},
		},
	}
}
