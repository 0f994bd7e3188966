// Package vorbis decodes the three Vorbis I header packets carried at the
// start of an Ogg Vorbis stream: identification, comment and setup.
//
// Only header structure is decoded. Audio packets are left to a full decoder.
// See https://xiph.org/vorbis/doc/Vorbis_I_spec.html, sections 4.2 and 5.
package vorbis
