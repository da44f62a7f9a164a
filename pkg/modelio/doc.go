// Package modelio provides JSON import and export for adjacency models.
//
// # Overview
//
// A learned [wfc.Model] can be saved, inspected, edited by hand, and fed back
// into the solver without the sample it came from. The pipeline also uses
// this encoding to cache models.
//
// # JSON Format
//
// Levels are keyed by their decimal value. Each entry lists the levels
// allowed in every direction:
//
//	{
//	  "levels": {
//	    "1": {"top": [2], "bottom": [2], "left": [2], "right": [2]},
//	    "2": {"top": [1], "bottom": [1], "left": [1], "right": [1]}
//	  }
//	}
//
// Missing direction arrays mean nothing is allowed that way. Lists are
// written sorted, so exports of equal models are byte-identical.
//
// [ReadJSON] rejects malformed JSON, level keys outside [1, 255] and
// neighbor levels outside that range. Round-tripping a model through
// [WriteJSON] and [ReadJSON] yields a model that compares [wfc.Model.Equal].
package modelio
