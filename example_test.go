package livepreview_test

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alnah/go-livepreview"
	"github.com/alnah/go-livepreview/internal/store"
)

// Example renders a two-page document to preview markup.
func Example() {
	p, err := livepreview.NewPipeline()
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	defer p.Close()

	res, err := p.Run(context.Background(), livepreview.Input{
		Source: "= Hello\n\nFirst page.\n\n#pagebreak()\n\nSecond page.",
	}, livepreview.ModeMarkup)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Println("pages:", res.Output.Pages)
	fmt.Println("has heading:", strings.Contains(res.Output.Markup, "Hello"))
	// Output:
	// pages: 2
	// has heading: true
}

// Example_emptySource shows that a blank source never reaches the engine.
func Example_emptySource() {
	p, err := livepreview.NewPipeline()
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	defer p.Close()

	_, err = p.Run(context.Background(), livepreview.Input{Source: " \n\t"}, livepreview.ModeMarkup)
	fmt.Println(errors.Is(err, livepreview.ErrEmptySource))
	// Output: true
}

// Example_session edits a document and flushes the scheduler instead of
// waiting for the debounce delay.
func Example_session() {
	ctx := context.Background()
	sess, err := livepreview.NewSession(ctx, store.NewMemory())
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	defer sess.Close()

	_ = sess.Editor.SetSource(ctx, "= Notes\n\nDraft.")
	sess.Scheduler.Flush()

	out := sess.Sink.Output()
	fmt.Println(out != nil && strings.Contains(out.Markup, "Draft."))
	fmt.Println(sess.Sink.Error() == "")
	// Output:
	// true
	// true
}

// Example_highlight shows the editor overlay for a line of source.
func Example_highlight() {
	fmt.Println(livepreview.Highlight("*b*"))
	// Output: <pre class="typst-highlighted"><code><span class="markup">*</span>b<span class="markup">*</span></code></pre>
}
