// Package livepreview is the backend of a live document editor: it turns
// every edit of a Typst-style source, its bibliography and its images into
// a fresh preview, without ever showing a stale one.
//
// # Quick Start
//
// Open a session on a store, edit, and read the preview:
//
//	sess, err := livepreview.NewSession(ctx, store.NewMemory())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer sess.Close()
//
//	_ = sess.Editor.SetSource(ctx, "= Hello\n\nWorld")
//	sess.Scheduler.Flush()
//	fmt.Println(sess.Sink.Output().Markup)
//
// # Render Pipeline
//
// Each attempt runs these stages on a snapshot of the editor:
//
//  1. Resource assembly: source, bibliography (as refs.yml) and decoded
//     images into an immutable compilation unit
//  2. Rendering by the engine, in markup mode (one fragment per page) or
//     binary mode (one PDF)
//  3. Output formatting: pages wrapped for the preview, bytes passed through
//
// A blank source fails with ErrEmptySource before the engine runs. Images
// that do not decode are left out and reported. Engine diagnostics are
// returned as *RenderError and shown verbatim.
//
// # Scheduling
//
// The Scheduler debounces edits (WithDelay, 500ms by default). Every edit
// bumps a generation token; an attempt commits to the Sink only if its
// token is still current when it completes. Superseded attempts are
// cancelled and their results dropped. The Sink holds exactly one of an
// output or an error message.
//
// # Configuration
//
// Use functional options to customize the components:
//
//	sess, err := livepreview.NewSession(ctx, st,
//	    livepreview.WithDelay(250*time.Millisecond),
//	    livepreview.WithTimeout(10*time.Second),
//	    livepreview.WithLogger(logger),
//	    livepreview.WithObserver(recorder),
//	)
//
// For one-shot use without scheduling, call Pipeline.Run directly.
package livepreview
