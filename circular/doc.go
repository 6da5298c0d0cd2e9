// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package circular provides fixed-capacity, position-addressed ring buffers
// for streaming sliding-window algorithms such as package dust's
// low-complexity masker.
package circular
