// Copyright 2021 The xfer Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package timeout defines policies for setting the attempt timeout of a
// channel execution, including on retries. By default the plan's own
// Timeout applies to every attempt; Adaptive lengthens the timeout after
// attempts that timed out.
package timeout
