package core

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Comcast/sweep/syntax"
	"github.com/Comcast/sweep/term"

	"go.uber.org/zap"
)

// LoadError lists the problems found while loading source.  Whatever
// could be loaded is loaded anyway.
type LoadError struct {
	File     string
	Problems []error
}

func (e *LoadError) Error() string {
	msgs := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		msgs[i] = p.Error()
	}
	return fmt.Sprintf("%s: %d problem(s): %s", e.File, len(e.Problems), strings.Join(msgs, "; "))
}

func (e *LoadError) Unwrap() []error {
	return e.Problems
}

type initGoal struct {
	goal   term.Term
	module *Module
	main   bool
}

// load is the state of one file being consulted.
type load struct {
	file   string
	module *Module
	inits  []initGoal

	seen map[*Predicate]bool
	last *Predicate

	problems []error
}

func (e *Engine) currentLoad() *load {
	if n := len(e.loading); 0 < n {
		return e.loading[n-1]
	}
	return nil
}

func (e *Engine) loadingFile() string {
	if l := e.currentLoad(); l != nil {
		return l.file
	}
	return ""
}

func (e *Engine) loaded(path string) bool {
	return e.files[path]
}

// resolveSource finds a source file, trying a .pl extension and the
// directory of the file being loaded.
func (e *Engine) resolveSource(name string) (string, bool) {
	var dirs []string
	if l := e.currentLoad(); l != nil && !filepath.IsAbs(name) {
		dirs = append(dirs, filepath.Dir(l.file))
	}
	dirs = append(dirs, "")
	for _, dir := range dirs {
		for _, cand := range []string{name, name + ".pl"} {
			path := cand
			if dir != "" {
				path = filepath.Join(dir, cand)
			}
			if fi, err := os.Stat(path); err == nil && !fi.IsDir() {
				if abs, err := filepath.Abs(path); err == nil {
					return abs, true
				}
				return path, true
			}
		}
	}
	return "", false
}

// Consult loads a file into the user module.  Consulting a file again
// replaces the predicates it defined.  Problems in the source give a
// *LoadError after everything else has been loaded.
func (e *Engine) Consult(name string) error {
	path, ok := e.resolveSource(name)
	if !ok {
		return ExistenceError("source_sink", term.Atom(name))
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return PermissionError("open", "source_sink", term.Atom(name))
	}
	return e.ConsultString(path, string(src))
}

// ConsultString loads source text as if it were the named file.
func (e *Engine) ConsultString(name, src string) error {
	return e.consultText(name, src, e.User())
}

func (e *Engine) consultText(file, src string, module *Module) error {
	e.logger.Debug("consult", zap.String("file", file))
	l := &load{
		file:   file,
		module: module,
		seen:   make(map[*Predicate]bool),
	}
	e.wipe(file)
	e.files[file] = true
	e.loading = append(e.loading, l)
	defer func() {
		e.loading = e.loading[:len(e.loading)-1]
	}()

	p := syntax.NewParser(file, src, e.ops)
	for {
		p.DoubleQuotes = e.doubleQuotes()
		c, err := p.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			e.problem(l, 0, err)
			continue
		}
		if err := e.handleClause(l, c); err != nil {
			if _, halted := err.(*HaltError); halted {
				return err
			}
			e.problem(l, c.Line, err)
		}
	}

	if l.module != e.User() && l.module.Name != "system" {
		for _, pi := range l.module.Exports {
			if p, have := l.module.Lookup(pi); have {
				e.User().Import(p)
			} else {
				e.problem(l, 0, fmt.Errorf("exported procedure %s is not defined", qualifiedName(l.module, pi)))
			}
		}
	}

	for _, ig := range l.inits {
		ok, err := e.once(ig.goal, ig.module)
		if _, halted := err.(*HaltError); halted {
			break
		}
		if err != nil {
			e.problem(l, 0, fmt.Errorf("initialization goal raised: %w", err))
		} else if !ok {
			e.problem(l, 0, fmt.Errorf("initialization goal failed: %s", syntax.Writeq(ig.goal)))
		}
		if ig.main && e.halted == nil {
			code := int64(0)
			if err != nil || !ok {
				code = 1
			}
			e.halted = &code
		}
	}

	if 0 < len(l.problems) {
		return &LoadError{File: file, Problems: l.problems}
	}
	return nil
}

// wipe forgets what an earlier load of file defined.
func (e *Engine) wipe(file string) {
	if !e.files[file] {
		return
	}
	for _, mod := range e.db.Modules() {
		for _, p := range mod.Predicates() {
			if p.File == file && !p.IsBuiltin() {
				p.removeAll()
				p.File = ""
				p.Doc = ""
			}
		}
	}
}

func (e *Engine) problem(l *load, line int, err error) {
	if se, is := err.(*syntax.SyntaxError); is {
		l.problems = append(l.problems, err)
		e.logger.Warn("load problem", zap.String("file", l.file), zap.Int("line", se.Line), zap.Error(err))
		e.warn(err.Error())
		return
	}
	msg := err.Error()
	if ex, is := err.(*Exception); is {
		msg = syntax.Writeq(ex.Term)
	}
	l.problems = append(l.problems, fmt.Errorf("%s:%d: %w", l.file, line, err))
	e.logger.Warn("load problem", zap.String("file", l.file), zap.Int("line", line), zap.String("problem", msg))
	e.warn(fmt.Sprintf("%s:%d: %s", l.file, line, msg))
}

// warn writes a warning to user_error unless the engine is quiet.
func (e *Engine) warn(msg string) {
	if e.flags["verbose"] == term.Atom("silent") {
		return
	}
	fmt.Fprintf(e.stderr.W, "Warning: %s\n", msg)
}

func (e *Engine) handleClause(l *load, c *syntax.Clause) error {
	t := term.Resolve(c.Term)
	if d, is := compoundOf(t, ":-", 1); is {
		return e.directive(l, d.Args[0])
	}
	if d, is := compoundOf(t, "?-", 1); is {
		return e.directive(l, d.Args[0])
	}
	if _, is := compoundOf(t, "-->", 2); is {
		var err error
		if t, err = dcgTranslate(t); err != nil {
			return err
		}
	}
	mod, head, body, err := e.clauseParts(l.module, t)
	if err != nil {
		return err
	}
	pi := headIndicator(head)
	if p, found := e.db.Resolve(mod, pi); found && p.IsBuiltin() {
		return PermissionError("modify", "static_procedure", pi.Term())
	}
	p := mod.Ensure(pi)

	if !l.seen[p] {
		l.seen[p] = true
		if p.File != "" && p.File != l.file && !p.Dynamic && 0 < len(p.clauses) {
			e.warn(fmt.Sprintf("%s:%d: redefining %s from %s", l.file, c.Line, qualifiedName(mod, pi), p.File))
			p.removeAll()
		}
		p.File, p.Line = l.file, c.Line
		if c.Doc != "" {
			p.Doc = c.Doc
		}
	} else if l.last != p && !p.Discontiguous && !p.Dynamic {
		e.warn(fmt.Sprintf("%s:%d: clauses of %s are not together", l.file, c.Line, qualifiedName(mod, pi)))
	}
	l.last = p

	if 0 < len(c.Singletons) {
		names := make([]string, len(c.Singletons))
		for i, v := range c.Singletons {
			names[i] = v.Name
		}
		e.warn(fmt.Sprintf("%s:%d: singleton variables %v in %s", l.file, c.Line, names, pi))
	}

	p.add(&Clause{Head: head, Body: body, File: l.file, Line: c.Line}, false)
	return e.persist(p)
}

func (e *Engine) directive(l *load, goal term.Term) error {
	ok, err := e.once(goal, l.module)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("directive failed: %s", syntax.Writeq(goal))
	}
	return nil
}
