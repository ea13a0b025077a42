// Package opusnative decodes Opus audio (RFC 6716) in pure Go.
//
// A Decoder turns raw Opus packets into interleaved PCM at 8, 12, 16, 24 or
// 48 kHz, mono or stereo. Each packet starts with a TOC byte that selects
// one of three coding modes:
//   - SILK: linear prediction for speech, up to 8 kHz audio bandwidth
//   - CELT: MDCT transform coding for music and low delay, up to 20 kHz
//   - Hybrid: SILK below 8 kHz and CELT above, in one range coded frame
//
// Mode switches are smoothed the way libopus does it: CELT redundancy
// frames carried in SILK and Hybrid packets, and 2.5 ms cross-fades through
// the CELT window otherwise.
//
// Lost packets are signalled with a nil packet and concealed from decoder
// history. A packet that fails to decode never leaves the decoder in a
// partial state: it is rolled back and the packet is concealed instead, so
// the caller gets usable audio together with the error.
//
// Containers (Ogg, RTP) and encoding are outside this package; feed it bare
// packets.
package opusnative
