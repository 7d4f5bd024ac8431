// Copyright 2021 The xfer Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package errkind enumerates the transfer engine's native error kinds,
// identifies which of them are continuable (eligible for retry), and
// classifies Go transport errors into a Kind.
package errkind
