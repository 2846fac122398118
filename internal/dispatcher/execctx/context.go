// Package execctx provides the execution context for action handlers.
package execctx

// Buffer abstracts the editing-side view a dispatch operation needs.
// The editing surface itself is an external collaborator; handlers see
// only text and line-position facts.
type Buffer interface {
	// SelectionText returns the active region's text. ok is false when
	// there is no active selection.
	SelectionText() (text string, ok bool)

	// Text returns the whole buffer contents.
	Text() string

	// CurrentLine returns the line under the cursor along with cursor
	// position facts: whether the cursor sits at column zero and
	// whether a character follows it on the line.
	CurrentLine() (text string, atLineStart bool, hasCharAfter bool)

	// AdvanceLine moves the cursor past the current line.
	AdvanceLine()

	// Path returns the buffer's file path. ok is false for unsaved
	// buffers with no file association.
	Path() (path string, ok bool)
}

// Display abstracts the surface that renders session output.
type Display interface {
	// ShowSession brings the named session's output to the front.
	ShowSession(name string)

	// Clear clears the visible output.
	Clear()
}

// ExecutionContext provides context for action execution.
type ExecutionContext struct {
	// Buffer is the editing endpoint's view, if any.
	Buffer Buffer

	// Display is the output surface, if any.
	Display Display

	// DriverID identifies the editing endpoint issuing the action.
	DriverID string

	// Data holds additional context values.
	Data map[string]any
}

// New creates an empty execution context.
func New() *ExecutionContext {
	return &ExecutionContext{}
}

// WithBuffer sets the buffer view and returns the context.
func (ctx *ExecutionContext) WithBuffer(b Buffer) *ExecutionContext {
	ctx.Buffer = b
	return ctx
}

// WithDisplay sets the display surface and returns the context.
func (ctx *ExecutionContext) WithDisplay(d Display) *ExecutionContext {
	ctx.Display = d
	return ctx
}

// WithDriverID sets the endpoint identity and returns the context.
func (ctx *ExecutionContext) WithDriverID(id string) *ExecutionContext {
	ctx.DriverID = id
	return ctx
}

// SetData stores a context value.
func (ctx *ExecutionContext) SetData(key string, value any) {
	if ctx.Data == nil {
		ctx.Data = make(map[string]any)
	}
	ctx.Data[key] = value
}

// GetData retrieves a context value.
func (ctx *ExecutionContext) GetData(key string) (any, bool) {
	if ctx.Data == nil {
		return nil, false
	}
	v, ok := ctx.Data[key]
	return v, ok
}
