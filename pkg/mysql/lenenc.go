// Copyright 2024 - 2025 SQLTap Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package mysql

// Length-encoded integers, the variable-width encoding used throughout
// the protocol:
//
//	tag < 0xfb          the tag itself is the value
//	tag == 0xfc         2-byte little-endian value follows
//	tag == 0xfd         3-byte little-endian value follows
//	tag == 0xfe         8-byte little-endian value follows
//
// 0xfb marks SQL NULL in result rows and 0xff marks an ERR packet; as
// integer tags both are reserved and rejected.

const (
	lenEncTag2 = 0xfc
	lenEncTag3 = 0xfd
	lenEncTag8 = 0xfe

	lenEncNullTag = 0xfb
	lenEncErrTag  = 0xff
)

// DecodeLenEncInt decodes a length-encoded integer from the start of p
// and returns the value and the number of bytes consumed. A short buffer
// is ErrNeedMoreData, a reserved tag is ErrMalformed.
func DecodeLenEncInt(p []byte) (uint64, int, error) {
	if len(p) < 1 {
		return 0, 0, ErrNeedMoreData
	}
	switch tag := p[0]; tag {
	case lenEncNullTag, lenEncErrTag:
		return 0, 0, ErrMalformed
	case lenEncTag2:
		if len(p) < 3 {
			return 0, 0, ErrNeedMoreData
		}
		return uint64(p[1]) | uint64(p[2])<<8, 3, nil
	case lenEncTag3:
		if len(p) < 4 {
			return 0, 0, ErrNeedMoreData
		}
		return uint64(p[1]) | uint64(p[2])<<8 | uint64(p[3])<<16, 4, nil
	case lenEncTag8:
		if len(p) < 9 {
			return 0, 0, ErrNeedMoreData
		}
		return uint64(p[1]) | uint64(p[2])<<8 | uint64(p[3])<<16 | uint64(p[4])<<24 |
			uint64(p[5])<<32 | uint64(p[6])<<40 | uint64(p[7])<<48 | uint64(p[8])<<56, 9, nil
	default:
		return uint64(tag), 1, nil
	}
}

// AppendLenEncInt appends the minimal encoding of v to dst. It never
// emits a reserved tag: values 0xfb..0xff take the 2-byte form.
func AppendLenEncInt(dst []byte, v uint64) []byte {
	switch {
	case v < lenEncNullTag:
		return append(dst, byte(v))
	case v <= 0xffff:
		return append(dst, lenEncTag2, byte(v), byte(v>>8))
	case v <= 0xffffff:
		return append(dst, lenEncTag3, byte(v), byte(v>>8), byte(v>>16))
	default:
		return append(dst, lenEncTag8,
			byte(v), byte(v>>8), byte(v>>16), byte(v>>24),
			byte(v>>32), byte(v>>40), byte(v>>48), byte(v>>56))
	}
}

// LenEncIntSize returns the encoded width of v in bytes.
func LenEncIntSize(v uint64) int {
	switch {
	case v < lenEncNullTag:
		return 1
	case v <= 0xffff:
		return 3
	case v <= 0xffffff:
		return 4
	default:
		return 9
	}
}

// AppendLenEncBytes appends the length of p as a length-encoded integer
// followed by p itself.
func AppendLenEncBytes(dst, p []byte) []byte {
	dst = AppendLenEncInt(dst, uint64(len(p)))
	return append(dst, p...)
}
