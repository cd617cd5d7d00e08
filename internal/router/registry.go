package router

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
)

// CommandFunc handles an exact command match. payload is the message
// text minus the leading command token.
type CommandFunc func(ctx context.Context, ev Event, payload string) error

// PatternFunc handles a regular-expression match. handled reports
// whether an earlier stage (or earlier pattern) already claimed the
// event; match is the submatch result for the pattern's expression.
type PatternFunc func(ctx context.Context, ev Event, handled bool, match []string) error

// CatchAllFunc handles every event in its scope. handled reports
// whether any earlier stage claimed the event.
type CatchAllFunc func(ctx context.Context, ev Event, handled bool) error

// InvalidFunc runs when an event's chat is not entitled to the matched
// handler. Returning true suppresses the default unauthorized report.
type InvalidFunc func(ctx context.Context, ev Event) bool

// ButtonFunc handles a button press. A non-empty return value is shown
// to the pressing user as the callback acknowledgement; a leading '!'
// requests a blocking alert instead of a toast and is stripped before
// display.
type ButtonFunc func(ctx context.Context, ev Event) (string, error)

type commandHandler struct {
	token string // case-folded
	scope []int64
	fn    CommandFunc
	desc  string
}

type patternHandler struct {
	re    *regexp.Regexp
	scope []int64
	fn    PatternFunc
	desc  string
}

type scopedHandler struct {
	scope []int64
	fn    CatchAllFunc
}

// CommandInfo describes a registered command for menu sync and /help.
type CommandInfo struct {
	Token       string
	Description string
}

var (
	leadingCommand = regexp.MustCompile(`^/(\w+)`)
	wordToken      = regexp.MustCompile(`^\w+$`)
)

// ExtractCommandToken returns the leading /word token of text, minus
// the slash and case-preserved, or "" when text does not start with a
// command token. Pure function, no side effects.
func ExtractCommandToken(text string) string {
	m := leadingCommand.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1]
}

// RegisterCommand stores a command handler under its case-folded
// token and auto-authorizes the chats in scope. Illegal tokens
// (non-word characters) and duplicate tokens are rejected with a log
// entry only; the first registration stays intact.
func (r *Router) RegisterCommand(token string, scope []int64, fn CommandFunc, desc string) {
	if !wordToken.MatchString(token) {
		slog.Warn("register command rejected: token has non-word characters", "token", token)
		return
	}
	folded := strings.ToLower(token)

	r.mu.Lock()
	if _, exists := r.commands[folded]; exists {
		r.mu.Unlock()
		slog.Warn("register command rejected: duplicate token", "token", folded)
		return
	}
	r.commands[folded] = &commandHandler{token: folded, scope: scope, fn: fn, desc: desc}
	r.order = append(r.order, folded)
	r.mu.Unlock()

	for _, chat := range scope {
		r.addAuthorized(chat)
	}
}

// RegisterPattern compiles expr and appends a pattern handler.
// Patterns are evaluated against every text event in registration
// order; several may match and all of them fire. The chats in scope
// are auto-authorized.
func (r *Router) RegisterPattern(expr string, scope []int64, fn PatternFunc, desc string) error {
	re, err := regexp.Compile(expr)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.patterns = append(r.patterns, &patternHandler{re: re, scope: scope, fn: fn, desc: desc})
	r.mu.Unlock()

	for _, chat := range scope {
		r.addAuthorized(chat)
	}
	return nil
}

// RegisterCatchAll appends a handler invoked for every event in its
// scope, after the command/pattern/audio stages, with the final
// handled flag. The chats in scope are auto-authorized.
func (r *Router) RegisterCatchAll(scope []int64, fn CatchAllFunc) {
	r.mu.Lock()
	r.catchAll = append(r.catchAll, &scopedHandler{scope: scope, fn: fn})
	r.mu.Unlock()

	for _, chat := range scope {
		r.addAuthorized(chat)
	}
}

// RegisterAudio appends a handler invoked for every audio/voice event
// in its scope. The chats in scope are auto-authorized.
func (r *Router) RegisterAudio(scope []int64, fn CatchAllFunc) {
	r.mu.Lock()
	r.audio = append(r.audio, &scopedHandler{scope: scope, fn: fn})
	r.mu.Unlock()

	for _, chat := range scope {
		r.addAuthorized(chat)
	}
}

// RegisterInvalid appends a handler consulted when an event's chat is
// not entitled to the matched handler.
func (r *Router) RegisterInvalid(fn InvalidFunc) {
	r.mu.Lock()
	r.invalid = append(r.invalid, fn)
	r.mu.Unlock()
}

// RegisterButton binds a callback identifier to its handler. A
// collision overwrites the previous handler.
func (r *Router) RegisterButton(id string, fn ButtonFunc) {
	r.mu.Lock()
	r.buttons[id] = fn
	r.mu.Unlock()
}

// Commands lists registered commands in registration order.
func (r *Router) Commands() []CommandInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]CommandInfo, 0, len(r.order))
	for _, token := range r.order {
		h := r.commands[token]
		out = append(out, CommandInfo{Token: h.token, Description: h.desc})
	}
	return out
}

// Matches reports whether the event's text would hit any registered
// command or pattern. Introspection only; no handler runs.
func (r *Router) Matches(ev Event) bool {
	token := strings.ToLower(ExtractCommandToken(ev.Text))
	r.mu.RLock()
	defer r.mu.RUnlock()
	if token != "" {
		if _, ok := r.commands[token]; ok {
			return true
		}
	}
	for _, p := range r.patterns {
		if p.re.MatchString(ev.Text) {
			return true
		}
	}
	return false
}

// command returns the handler for a case-folded token, or nil.
func (r *Router) command(folded string) *commandHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.commands[folded]
}

// button returns the handler for a callback identifier, or nil.
func (r *Router) button(id string) ButtonFunc {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.buttons[id]
}

// snapshotPatterns returns the pattern list for iteration outside the
// lock; the slice is append-only after startup.
func (r *Router) snapshotPatterns() []*patternHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.patterns
}

func (r *Router) snapshotCatchAll() []*scopedHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.catchAll
}

func (r *Router) snapshotAudio() []*scopedHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.audio
}

func (r *Router) snapshotInvalid() []InvalidFunc {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.invalid
}
