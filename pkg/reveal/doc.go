/*
Package reveal implements the typewriter effect: a per-surface state machine that
reveals (or hides) a body of text one character at a time.

A Reader owns exactly one ports.TextTarget. It never starts timers; the host calls
Tick once per frame with the elapsed time, and the reader walks through

	Waiting -> Starting -> Reading -> Finishing -> Waiting

Each character waits for its delay (the per-character override for the previous
character, or the default delay) multiplied by the text speed. Handlers can be
attached to the start and end of a read and to specific character indices or
substrings of the body.

	buf := memory.NewBuffer()
	r, _ := reveal.New(buf, reveal.WithDefaultDelay(30*time.Millisecond))
	r.OnInterceptText("!", func(e reveal.Event) { shake() })
	r.Read("", "Hello there!", "Narrator")

	for !r.HasFinishedReading() {
		r.Tick(frame())
	}
*/
package reveal
