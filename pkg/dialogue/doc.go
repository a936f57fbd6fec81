// Package dialogue implements the model-backed collaborators: the intent
// classifier and the SET_DEST, SET_DEP and MAIN dialogue turns.
package dialogue
