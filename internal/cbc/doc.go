// Package cbc reads double-precision cell-by-cell budget files.
//
// A budget file is a sequence of little-endian records. Each record starts
// with
//
//	kstp, kper int32; text [16]byte; ndim1, ndim2, ndim3 int32
//
// A negative ndim3 marks a compact header, followed by
//
//	imeth int32; delt, pertim, totim float64
//
// and then the data: a full ndim1*ndim2*|ndim3| array (imeth 0 and 1) or a
// list of (id1, id2, q, aux...) entries (imeth 6), preceded by four model
// and package names, ndat, ndat-1 auxiliary names and nlist.
//
// File.Source and Reader.Steps adapt the records to budget.Source, grouping
// consecutive records of one (kstp, kper) into a single step.
package cbc
