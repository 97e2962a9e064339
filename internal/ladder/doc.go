// Package ladder holds the fixed rung catalog, the rule that picks which rungs
// a source deserves, and the output layout shared by transcode jobs and the
// manifest writer.
//
// Decide is pure: equal StreamInfo values always yield equal ladders, and the
// 220p rung is always included.
package ladder
