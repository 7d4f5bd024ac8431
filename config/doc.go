// Copyright 2021 The xfer Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package config loads execution settings from defaults, an optional
// config file, an optional dotenv file and XFER_ environment variables.
package config
