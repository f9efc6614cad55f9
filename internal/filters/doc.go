// Package filters implements the raw PDF stream codecs.
//
// Each codec works on a byte slice and a Params map built from the stream's
// /DecodeParms dictionary. Codecs that can expand their input take a maxSize
// argument; output beyond it fails with ErrTooLarge (0 disables the check).
//
//	decoded, err := filters.FlateDecode(data, filters.Params{
//	    "Predictor": 12,
//	    "Columns":   100,
//	}, 100<<20)
//
// Supported codecs:
//   - FlateDecode and LZWDecode, both with TIFF (2) and PNG (10-15) predictors
//   - RunLengthDecode
//   - ASCIIHexDecode and ASCII85Decode
//   - CCITTFaxDecode (Group 3 1-D and Group 4)
//
// Parameter values outside their legal domain fail with ErrInvalidParams.
// Known but unimplemented variants fail with ErrUnsupported.
package filters
