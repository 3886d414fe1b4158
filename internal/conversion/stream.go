package conversion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"

	"github.com/pivotproxy/pivot/internal/reframe"
	"github.com/pivotproxy/pivot/internal/transform"
	"github.com/pivotproxy/pivot/internal/unified"
)

// relay yields raw upstream chunks unmodified. Used when client and provider
// speak the same dialect: the frames are already in the right shape, so the
// engine never re-parses them.
func relay(ctx context.Context, body io.ReadCloser) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		defer body.Close()

		buf := make([]byte, 32*1024)
		for {
			n, err := body.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				if !yield(chunk, nil) {
					return
				}
			}
			if err != nil {
				if !errors.Is(err, io.EOF) && ctx.Err() == nil {
					yield(nil, fmt.Errorf("%w: %v", transform.ErrStreamTransport, err))
				}
				return
			}
		}
	}
}

// pump translates a live upstream stream into client-dialect frames: decode
// each SSE event with the target codec, feed the fragment through the
// re-framer, encode the resulting lifecycle events with the source codec.
//
// Events that fail to decode are logged and skipped. A transport failure,
// whether a dead connection or an explicit upstream error event, terminates
// the sequence with an ErrStreamTransport-wrapped error and no closing
// frames: the client must see the stream die, not a fabricated clean finish.
func pump(ctx context.Context, resp *http.Response, src, tgt transform.Transformer) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		defer resp.Body.Close()

		machine := reframe.New(unified.NewMessageID(), "")

		emit := func(events []unified.StreamEvent) bool {
			for _, ev := range events {
				frame, err := src.EncodeStreamEvent(ev)
				if err != nil {
					slog.WarnContext(ctx, "dropping unencodable stream event", "event", string(ev.Type), "error", err)
					continue
				}
				if frame == nil {
					continue
				}
				if !yield(frame, nil) {
					return false
				}
			}
			return true
		}

		done := false
		decoder := ssestream.NewDecoder(resp)
		for decoder.Next() {
			if ctx.Err() != nil {
				return
			}

			frag, err := tgt.DecodeStreamEvent(decoder.Event())
			if err != nil {
				if errors.Is(err, transform.ErrStreamTransport) {
					yield(nil, err)
					return
				}
				slog.WarnContext(ctx, "skipping malformed stream event", "error", err)
				continue
			}
			if frag.IsNoop() {
				continue
			}

			if !emit(machine.Feed(frag)) {
				return
			}
			if frag.Terminal {
				done = true
				break
			}
		}

		if !done {
			if err := decoder.Err(); err != nil {
				if ctx.Err() == nil {
					yield(nil, fmt.Errorf("%w: %v", transform.ErrStreamTransport, err))
				}
				return
			}
		}

		// Input ended cleanly. Close out whatever lifecycle remains; the
		// machine makes this a no-op when a terminal event already did.
		emit(machine.Finish())
	}
}
