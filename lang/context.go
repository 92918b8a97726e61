package lang

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/ardnew/cel/log"
)

// Func implements a callable function. receiver is nil for free calls. The
// context is provided for reading bindings; implementations must not modify
// it.
type Func func(receiver Value, args []Value, c *Context) (Value, error)

// Context binds variable names to values and function names to
// implementations. It is built by the caller before evaluation and treated as
// read-only while a program executes. A Context is not safe for concurrent
// modification.
type Context struct {
	vars   map[string]Value
	funcs  map[string][]*binding
	logger log.Logger
	seq    int
}

// ContextOption configures a new [Context].
type ContextOption func(*Context)

// WithoutBuiltins creates a context with no predefined functions.
func WithoutBuiltins() ContextOption {
	return func(c *Context) { c.funcs = make(map[string][]*binding) }
}

// WithContextLogger sets the logger used for trace output during execution.
func WithContextLogger(logger log.Logger) ContextOption {
	return func(c *Context) { c.logger = logger }
}

// NewContext returns a context with the built-in functions registered.
func NewContext(opts ...ContextOption) *Context {
	c := &Context{
		vars:  make(map[string]Value),
		funcs: make(map[string][]*binding),
	}

	registerBuiltins(c)

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c
}

// AddVariable binds name to v, replacing any previous binding. A nil v binds
// null.
func (c *Context) AddVariable(name string, v Value) {
	if v == nil {
		v = Null{}
	}

	c.vars[name] = v
}

// AddVariables binds each entry of vars after converting it with [ValueOf].
func (c *Context) AddVariables(vars map[string]any) error {
	for _, name := range slices.Sorted(maps.Keys(vars)) {
		v, err := ValueOf(vars[name])
		if err != nil {
			return ErrInvalidVariable.Wrap(err).With(slog.String("name", name))
		}

		c.AddVariable(name, v)
	}

	return nil
}

// Variable returns the value bound to name.
func (c *Context) Variable(name string) (Value, bool) {
	v, ok := c.vars[name]

	return v, ok
}

// HasFunction reports whether any implementation is registered as name.
func (c *Context) HasFunction(name string) bool {
	return len(c.funcs[name]) > 0
}

// Names returns all bound variable and function names in sorted order.
func (c *Context) Names() []string {
	names := make([]string, 0, len(c.vars)+len(c.funcs))
	names = slices.AppendSeq(names, maps.Keys(c.vars))

	for name := range c.funcs {
		if _, dup := c.vars[name]; !dup {
			names = append(names, name)
		}
	}

	slices.Sort(names)

	return names
}

// Variables returns the bound variable names in sorted order.
func (c *Context) Variables() []string {
	return slices.Sorted(maps.Keys(c.vars))
}

// Clone returns an independent copy of c. Bound values are shared, which is
// safe because values are immutable.
func (c *Context) Clone() *Context {
	d := &Context{
		vars:   maps.Clone(c.vars),
		funcs:  make(map[string][]*binding, len(c.funcs)),
		logger: c.logger,
		seq:    c.seq,
	}

	for name, bs := range c.funcs {
		d.funcs[name] = slices.Clone(bs)
	}

	return d
}

// receiverMode constrains whether a call site must supply a receiver.
type receiverMode uint8

const (
	receiverAny receiverMode = iota
	receiverRequired
	receiverForbidden
)

// binding is one registered implementation of a function name.
type binding struct {
	fn        Func
	name      string
	doc       string
	receivers []Kind // accepted receiver kinds; empty accepts any
	params    []Kind // declared parameter kinds; nil when undeclared
	arity     int    // required argument count; -1 accepts any
	seq       int    // registration order
	receiver  receiverMode
}

// FuncOption constrains the call shapes a function accepts.
type FuncOption func(*binding)

// WithReceiver requires the call site to have a receiver. If kinds are
// given, the receiver must have one of them.
func WithReceiver(kinds ...Kind) FuncOption {
	return func(b *binding) {
		b.receiver = receiverRequired
		b.receivers = slices.Clone(kinds)
	}
}

// WithoutReceiver restricts the function to free calls.
func WithoutReceiver() FuncOption {
	return func(b *binding) {
		b.receiver = receiverForbidden
		b.receivers = nil
	}
}

// WithArity requires exactly n arguments.
func WithArity(n int) FuncOption {
	return func(b *binding) { b.arity = n }
}

// WithParams declares the argument kinds, which also fixes the arity.
// [KindAny] accepts an argument of any kind.
func WithParams(kinds ...Kind) FuncOption {
	return func(b *binding) {
		b.params = append([]Kind{}, kinds...)
		b.arity = len(kinds)
	}
}

// WithDoc attaches a short description shown with the signature.
func WithDoc(doc string) FuncOption {
	return func(b *binding) { b.doc = doc }
}

// AddFunction registers fn as name. Several implementations may share a name
// when they differ in receiver requirement, arity, or parameter kinds.
// Registering the same shape again replaces the earlier implementation.
//
// Without options the function accepts any call shape.
func (c *Context) AddFunction(name string, fn Func, opts ...FuncOption) {
	b := &binding{
		fn:    fn,
		name:  name,
		arity: -1,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}

	for i, prev := range c.funcs[name] {
		if prev.sameShape(b) {
			b.seq = prev.seq
			c.funcs[name][i] = b

			return
		}
	}

	c.seq++
	b.seq = c.seq
	c.funcs[name] = append(c.funcs[name], b)
}

func (b *binding) sameShape(o *binding) bool {
	return b.receiver == o.receiver &&
		b.arity == o.arity &&
		slices.Equal(b.receivers, o.receivers) &&
		slices.Equal(b.params, o.params) &&
		(b.params == nil) == (o.params == nil)
}

// accepts reports whether the binding can serve the call site.
func (b *binding) accepts(hasReceiver bool, receiver Value, args []Value) bool {
	switch b.receiver {
	case receiverRequired:
		if !hasReceiver || !kindIn(kindOf(receiver), b.receivers) {
			return false
		}

	case receiverForbidden:
		if hasReceiver {
			return false
		}
	}

	if b.arity >= 0 && b.arity != len(args) {
		return false
	}

	for i, k := range b.params {
		if k != KindAny && k != kindOf(args[i]) {
			return false
		}
	}

	return true
}

func kindIn(k Kind, kinds []Kind) bool {
	return len(kinds) == 0 || slices.Contains(kinds, k) ||
		slices.Contains(kinds, KindAny)
}

// rank orders matching bindings; a greater rank is more specific.
func (b *binding) rank() [3]int {
	var r [3]int

	if b.receiver != receiverAny {
		r[0] = 1

		if len(b.receivers) > 0 && !slices.Contains(b.receivers, KindAny) {
			r[0] = 2
		}
	}

	if b.arity >= 0 {
		r[1] = 1
	}

	for _, k := range b.params {
		if k != KindAny {
			r[2]++
		}
	}

	return r
}

// resolve selects the implementation for a call site: filter by receiver,
// then by arity and argument kinds, then pick the most specific binding.
// Ties go to the earliest registration.
func (c *Context) resolve(
	name string,
	hasReceiver bool,
	receiver Value,
	args []Value,
) (*binding, error) {
	var best *binding

	for _, b := range c.funcs[name] {
		if !b.accepts(hasReceiver, receiver, args) {
			continue
		}

		if best == nil || moreSpecific(b, best) {
			best = b
		}
	}

	if best == nil {
		return nil, ErrNoMatchingOverload.With(
			slog.String("function", name),
			slog.String("call", callShape(name, hasReceiver, receiver, args)),
		)
	}

	return best, nil
}

func moreSpecific(a, b *binding) bool {
	ra, rb := a.rank(), b.rank()
	if c := slices.Compare(ra[:], rb[:]); c != 0 {
		return c > 0
	}

	return a.seq < b.seq
}

// callShape describes a call site for diagnostics, e.g. "string.f(int)".
func callShape(name string, hasReceiver bool, receiver Value, args []Value) string {
	var sb strings.Builder

	if hasReceiver {
		sb.WriteString(kindOf(receiver).String())
		sb.WriteByte('.')
	}

	sb.WriteString(name)
	sb.WriteByte('(')

	for i, a := range args {
		if i > 0 {
			sb.WriteString(", ")
		}

		sb.WriteString(kindOf(a).String())
	}

	sb.WriteByte(')')

	return sb.String()
}

// Call invokes the function registered as name. hasReceiver selects method
// dispatch with receiver as the target.
func (c *Context) Call(
	name string,
	hasReceiver bool,
	receiver Value,
	args ...Value,
) (Value, error) {
	if !c.HasFunction(name) {
		// A variable holding a function reference is callable.
		if ref, ok := c.vars[name].(Function); ok && !hasReceiver &&
			c.HasFunction(ref.Name) {
			return c.Call(ref.Name, ref.Receiver != nil, ref.Receiver, args...)
		}

		return nil, ErrNoMatchingOverload.With(
			slog.String("function", name),
			slog.String("reason", "undefined function"),
		)
	}

	b, err := c.resolve(name, hasReceiver, receiver, args)
	if err != nil {
		return nil, err
	}

	return c.invoke(b, receiver, args)
}

// invoke runs a binding, converting panics and foreign errors into
// [ErrFunction].
func (c *Context) invoke(b *binding, receiver Value, args []Value) (v Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			v = nil
			err = ErrFunction.Wrap(fmt.Errorf("panic: %v", r)).
				With(slog.String("function", b.name))
		}
	}()

	v, err = b.fn(receiver, args, c)
	if err != nil {
		var le *Error
		if errors.As(err, &le) && le.Sentinel() != nil {
			return nil, err
		}

		return nil, ErrFunction.Wrap(err).With(slog.String("function", b.name))
	}

	if v == nil {
		v = Null{}
	}

	return v, nil
}

// Signature describes one registered implementation.
type Signature struct {
	Name string
	// Receiver is empty for free-only functions, "any" when a receiver is
	// optional, or the accepted receiver kinds joined by "|".
	Receiver string
	// Params lists parameter kinds; nil with Variadic set when undeclared.
	Params   []string
	Doc      string
	Variadic bool
	Optional bool // receiver may be omitted
}

// String renders the signature, e.g. "string.startsWith(string)".
func (s Signature) String() string {
	var sb strings.Builder

	if s.Receiver != "" {
		if s.Optional {
			sb.WriteString("[" + s.Receiver + ".]")
		} else {
			sb.WriteString(s.Receiver + ".")
		}
	}

	sb.WriteString(s.Name)
	sb.WriteByte('(')
	sb.WriteString(strings.Join(s.Params, ", "))

	if s.Variadic {
		if len(s.Params) > 0 {
			sb.WriteString(", ")
		}

		sb.WriteString("...")
	}

	sb.WriteByte(')')

	return sb.String()
}

func (b *binding) signature() Signature {
	s := Signature{Name: b.name, Doc: b.doc}

	switch b.receiver {
	case receiverAny:
		s.Receiver, s.Optional = "any", true
	case receiverRequired:
		s.Receiver = "any"

		if len(b.receivers) > 0 {
			names := make([]string, len(b.receivers))
			for i, k := range b.receivers {
				names[i] = k.String()
			}

			s.Receiver = strings.Join(names, "|")
		}
	}

	switch {
	case b.params != nil:
		for _, k := range b.params {
			s.Params = append(s.Params, k.String())
		}
	case b.arity >= 0:
		for range b.arity {
			s.Params = append(s.Params, KindAny.String())
		}
	default:
		s.Variadic = true
	}

	return s
}

// Signatures returns the registered implementations of name in
// registration order, or of every function when name is empty.
func (c *Context) Signatures(name string) []Signature {
	var names []string
	if name != "" {
		names = []string{name}
	} else {
		names = slices.Sorted(maps.Keys(c.funcs))
	}

	var out []Signature

	for _, n := range names {
		bs := slices.Clone(c.funcs[n])
		slices.SortFunc(bs, func(a, b *binding) int { return a.seq - b.seq })

		for _, b := range bs {
			out = append(out, b.signature())
		}
	}

	return out
}
