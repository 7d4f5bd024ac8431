// Copyright 2021 The xfer Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package result defines Entity, the uniform outcome of one channel
// execution, and the helpers that assemble it from raw engine output.
package result
