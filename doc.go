/*
Package tonedeck transfers the colour tone of a reference picture onto a
target picture.

A tone is summarised by a ToneDescriptor: brightness, contrast and saturation
statistics taken from the picture's intensity histograms, plus the hue of its
average colour. Matching compares the target's descriptor with a stored
reference descriptor and applies the resulting correction with a
colour-controls operator followed by a hue rotation.
*/
package tonedeck
