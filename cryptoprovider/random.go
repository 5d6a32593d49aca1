// Copyright (C) 2026 nerites-labs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package cryptoprovider

import (
	"encoding/binary"
	"io"

	"github.com/nerites-labs/opcua-seccore/secretbuf"
)

// Random fills dst with entropy from the provider's underlying source. It
// never silently returns predictable data: any short read or source error
// is reported as NOK.
func (p *Provider) Random(dst []byte) error {
	if _, err := io.ReadFull(p.randomSource, dst); err != nil {
		return newStatus(StatusNOK, err)
	}
	return nil
}

// GenerateSecureChannelNonce produces a secret buffer of the policy's
// nonce length filled from entropy.
func (p *Provider) GenerateSecureChannelNonce() (*secretbuf.SecretBuffer, error) {
	n, err := p.SecureChannelNonceLength()
	if err != nil {
		return nil, err
	}
	sb, err := secretbuf.New(n)
	if err != nil {
		return nil, newStatus(StatusOutOfMemory, err)
	}
	view, err := sb.ExposeModify()
	if err != nil {
		return nil, newStatus(StatusNOK, err)
	}
	defer sb.UnexposeModify()
	if err := p.Random(view); err != nil {
		sb.DeleteClear()
		return nil, err
	}
	return sb, nil
}

// GenerateRandomID produces exactly 4 bytes of entropy as a uint32.
func (p *Provider) GenerateRandomID() (uint32, error) {
	var buf [4]byte
	if err := p.Random(buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}
