package soltx

import "encoding/binary"

// BuildSystemTransferInstruction creates a SystemProgram.Transfer instruction.
// Data: [u32 LE: 2 (Transfer variant)] [u64 LE: lamports] = 12 bytes.
func BuildSystemTransferInstruction(from, to PublicKey, lamports uint64) Instruction {
	data := make([]byte, 12)
	binary.LittleEndian.PutUint32(data[0:4], 2) // Transfer = variant index 2
	binary.LittleEndian.PutUint64(data[4:12], lamports)

	return Instruction{
		ProgramID: systemProgramID,
		Accounts: []AccountMeta{
			{PubKey: from, IsSigner: true, IsWritable: true},
			{PubKey: to, IsSigner: false, IsWritable: true},
		},
		Data: data,
	}
}

// BuildCloseAccountInstruction creates an SPL Token.CloseAccount instruction.
// Data: [u8: 9 (CloseAccount variant)] = 1 byte. Remaining lamports go to dest.
func BuildCloseAccountInstruction(account, dest, owner PublicKey) Instruction {
	return Instruction{
		ProgramID: tokenProgramID,
		Accounts: []AccountMeta{
			{PubKey: account, IsSigner: false, IsWritable: true},
			{PubKey: dest, IsSigner: false, IsWritable: true},
			{PubKey: owner, IsSigner: true, IsWritable: false},
		},
		Data: []byte{9}, // CloseAccount = variant index 9
	}
}
