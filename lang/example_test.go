package lang_test

import (
	"errors"
	"fmt"
	"os"

	"github.com/ardnew/cel/lang"
)

func Example() {
	p, err := lang.Compile(`greeting + ", " + name.Hello()`)
	if err != nil {
		fmt.Println(err)

		return
	}

	c := lang.NewContext()
	c.AddVariable("greeting", lang.String("Hi"))
	c.AddVariable("name", lang.String("world"))
	c.AddFunction("Hello",
		func(recv lang.Value, _ []lang.Value, _ *lang.Context) (lang.Value, error) {
			return lang.String("Hello ") + recv.(lang.String), nil
		},
		lang.WithReceiver(lang.KindString), lang.WithArity(0))

	v, err := p.Execute(c)
	if err != nil {
		fmt.Println(err)

		return
	}

	fmt.Println(lang.Repr(v))
	// Output: "Hi, Hello world"
}

func Example_compileError() {
	_, err := lang.Compile("(1 + 2")
	fmt.Println(err)
	// Output:
	// syntax error at 1:7: expected ')', found end of input
	//   1 | (1 + 2
	//             ^
}

func Example_executeError() {
	p, _ := lang.Compile("[1, 2, 3][5]")

	_, err := p.Execute(lang.NewContext())
	fmt.Println(errors.Is(err, lang.ErrIndexOutOfRange))
	// Output: true
}

func ExampleProgram_String() {
	p, _ := lang.Compile("((1 + 2)) * (3) ?? (x)")
	fmt.Println(p.String())
	// Output: (1 + 2) * 3 ?? x
}

func ExampleProgram_Print() {
	p, _ := lang.Compile(`m["k"] > 1 && ok`)
	p.Print(os.Stdout)
	// Output:
	// Logical: &&
	//   Binary: >
	//     Index
	//       Ident: m
	//       [] Literal: "k"
	//     Literal: 1
	//   Ident: ok
}

func ExampleValueOf() {
	v, _ := lang.ValueOf(map[string]any{"b": []int{1, 2}, "a": 1.5})
	fmt.Println(lang.Repr(v))
	// Output: {"a": 1.5, "b": [1, 2]}
}
