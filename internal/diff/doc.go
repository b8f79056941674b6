// Package diff computes the smallest update payload that turns one vehicle
// record into another. Scalar fields are compared in a fixed order; photo
// slots become base64 additions, removals of uploaded photos, or plain
// reference assignments.
//
// # Photo Slots
//
//	before        after         sent
//	""            local ref     addition fotoN.<ext>
//	uploaded      ""            removal fotoN.jpg {id, path}
//	uploaded      local ref     addition + removal fotoN_old.jpg
//	anything      remote URL    fotoN = URL
//
// A slot is never both assigned and removed in one payload. Local photos
// that cannot be read are sent as a plain assignment and their removal is
// skipped, so the server never loses a photo the client failed to replace.
// Photo encoding runs in parallel, at most four at a time.
package diff
