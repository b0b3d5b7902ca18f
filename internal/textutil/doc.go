// Package textutil provides filename and title sanitization shared by the
// document creator and the archiver.
package textutil
