// Package sniff identifies image formats and pixel dimensions from the
// leading bytes of a file.
//
// A Session accepts data in arbitrary pieces and reports NeedMore until the
// header has been seen, so a network transfer can be dropped as soon as the
// answer is known. Supported formats are png, gif, bmp, jpeg, ico, cur,
// webp, tiff and psd.
package sniff
