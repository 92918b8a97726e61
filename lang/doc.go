// Package lang implements a small, dynamically typed expression language in
// the style of CEL: expressions are compiled once into an immutable
// [Program] and evaluated any number of times against a [Context] of
// variable and function bindings.
//
// # Grammar
//
// Informal EBNF, lowest precedence first:
//
//	Expr        → Coalesce ( '?' Expr ':' Expr )?
//	Coalesce    → Or ( '??' Or )*
//	Or          → And ( '||' And )*
//	And         → Equality ( '&&' Equality )*
//	Equality    → Relational ( ( '==' | '!=' ) Relational )*
//	Relational  → Additive ( ( '<' | '<=' | '>' | '>=' ) Additive )*
//	Additive    → Mult ( ( '+' | '-' ) Mult )*
//	Mult        → Unary ( ( '*' | '/' | '%' ) Unary )*
//	Unary       → ( '!' | '-' ) Unary | Postfix
//	Postfix     → Primary ( '.' Ident Args? | '[' Expr ']' )*
//	Primary     → Literal | Ident Args? | '(' Expr ')' | List | Map
//	List        → '[' ( Expr ( ',' Expr )* ','? )? ']'
//	Map         → '{' ( Expr ':' Expr ( ',' Expr ':' Expr )* ','? )? '}'
//	Args        → '(' ( Expr ( ',' Expr )* )? ')'
//
// # Example
//
//	p, err := lang.Compile(`name.startsWith("W") ? size(name) : 0`)
//	if err != nil {
//	    return err // *lang.CompileError
//	}
//
//	c := lang.NewContext()
//	c.AddVariable("name", lang.String("World"))
//
//	v, err := p.Execute(c) // lang.Int(5)
//
// # Evaluation
//
// The operators &&, || and ?? short-circuit, and the conditional evaluates
// exactly one branch. Every other node evaluates its operands eagerly, left
// to right. Any failure aborts evaluation and is reported as an [*Error]
// derived from one of the execution sentinels, such as [ErrNoSuchVariable]
// or [ErrOverflow].
//
// # Functions
//
// Functions are registered on a Context with [Context.AddFunction]. Several
// implementations may share a name; a call site is resolved by receiver
// presence, then arity, then argument kinds, preferring the most specific
// registration. A call written as recv.f() never resolves to a function
// registered with [WithoutReceiver].
package lang
