// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package blocks separates streamed assistant text into narrative text and
// fenced structured blocks.
//
// The assistant embeds rich content in fences:
//
//	Here is your plan:
//	```html
//	<table>...</table>
//	```
//
// Deltas arrive in arbitrary pieces, so text is accumulated until a
// decision can be made. Narrative text is released for typing as soon as
// it is clearly not part of a fence; a fence is held back until its
// closing marker arrives and is then released whole, never typed.
package blocks
