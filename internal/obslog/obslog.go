// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package obslog is a thin pass-through over cc-lib's logger, matching the
// teacher's own cclog call sites (Infof/Warnf/Errorf/Debugf/Fatalf) but
// giving the pipeline packages a local seam to substitute a test double
// without importing cc-lib directly everywhere.
package obslog

import cclog "github.com/ClusterCockpit/cc-lib/v2/ccLogger"

func Infof(format string, v ...any)  { cclog.Infof(format, v...) }
func Warnf(format string, v ...any)  { cclog.Warnf(format, v...) }
func Errorf(format string, v ...any) { cclog.Errorf(format, v...) }
func Debugf(format string, v ...any) { cclog.Debugf(format, v...) }
func Fatalf(format string, v ...any) { cclog.Fatalf(format, v...) }
func Info(v ...any)                  { cclog.Info(v...) }
func Warn(v ...any)                  { cclog.Warn(v...) }
func Error(v ...any)                 { cclog.Error(v...) }
