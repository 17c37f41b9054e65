// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backend is the HTTP client for the travel planning service.
//
// Two endpoints are used:
//
//   - POST {base}{chat_path}: send one user message, receive an SSE stream
//   - PATCH {base}{plans_path}/{id}/status: save a plan with a new status
//
// Errors are returned as *ClientError so callers can tell connection
// problems, timeouts and HTTP failures apart. For HTTP failures the message
// is the server's own explanation ("detail" or "message" field) whenever it
// provides one.
//
// # Usage
//
//	client := backend.NewClient(backend.DefaultConfig())
//	body, err := client.OpenChatStream(ctx, backend.ChatRequest{
//	    UserID:  "1",
//	    PlanID:  "1",
//	    Message: "Plan a trip to Tokyo",
//	})
//	if err != nil {
//	    return err
//	}
//	defer body.Close()
package backend
