// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package sse turns a raw byte stream from the planning backend into
// discrete Server-Sent Event data payloads.
//
// The backend writes one JSON payload per event, each prefixed with
// "data: " and terminated by a blank line. Reads from the network may end
// anywhere: in the middle of a frame, in the middle of a multi-byte UTF-8
// character, or after several complete frames. Both the push-style Splitter
// and the pull-style Decoder buffer bytes until a frame boundary, so every
// emitted payload is complete and correctly decoded.
//
// # Key Types
//
//   - Frame: one "data: " payload with the prefix stripped
//   - Splitter: feed arbitrary byte chunks, get back complete frames
//   - Decoder: lazy frame sequence over an io.Reader
//
// # Usage
//
//	dec := sse.NewDecoder(resp.Body)
//	for {
//	    frame, err := dec.Next()
//	    if err == io.EOF {
//	        break
//	    }
//	    if err != nil {
//	        return err
//	    }
//	    handle(frame.Data)
//	}
package sse
