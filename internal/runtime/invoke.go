package runtime

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// MaxInvokeDepth bounds nested cross-program invocations
const MaxInvokeDepth = 4

// InvokeContext is what a program sees while it processes one instruction
type InvokeContext struct {
	bank      *Bank
	programID solana.PublicKey
	depth     int
	logs      *[]string

	// accounts visible to the current frame
	frame map[solana.PublicKey]*AccountInfo
	// account state at frame entry, refreshed after each nested invocation
	pre map[solana.PublicKey]*Account
}

// ProgramID returns the id of the program currently executing
func (c *InvokeContext) ProgramID() solana.PublicKey {
	return c.programID
}

// Log appends a program log line
func (c *InvokeContext) Log(format string, args ...interface{}) {
	*c.logs = append(*c.logs, "Program log: "+fmt.Sprintf(format, args...))
}

// Invoke calls another program with accounts taken from the current frame.
// Each seed set in signerSeeds grants signer privilege to the address it
// derives under the calling program, and only for this call.
func (c *InvokeContext) Invoke(ix solana.Instruction, signerSeeds ...[][]byte) error {
	if c.depth+1 >= MaxInvokeDepth {
		return ErrCallDepth
	}

	pdaSigners := make(map[solana.PublicKey]bool, len(signerSeeds))
	for _, seeds := range signerSeeds {
		address, err := solana.CreateProgramAddress(seeds, c.programID)
		if err != nil {
			return fmt.Errorf("%w: invalid signer seeds: %v", ErrPrivilegeEscalation, err)
		}
		pdaSigners[address] = true
	}

	metas := ix.Accounts()
	infos := make([]*AccountInfo, len(metas))
	for i, meta := range metas {
		caller, ok := c.frame[meta.PublicKey]
		if !ok {
			return fmt.Errorf("%w: %s", ErrMissingAccount, meta.PublicKey)
		}
		if meta.IsSigner && !caller.IsSigner && !pdaSigners[meta.PublicKey] {
			return fmt.Errorf("%w: %s must sign", ErrPrivilegeEscalation, meta.PublicKey)
		}
		if meta.IsWritable && !caller.IsWritable {
			return fmt.Errorf("%w: %s is not writable", ErrPrivilegeEscalation, meta.PublicKey)
		}
		infos[i] = &AccountInfo{
			Key:        meta.PublicKey,
			IsSigner:   meta.IsSigner,
			IsWritable: meta.IsWritable,
			Account:    caller.Account,
		}
	}

	data, err := ix.Data()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAccountData, err)
	}

	child := &InvokeContext{
		bank:      c.bank,
		programID: ix.ProgramID(),
		depth:     c.depth + 1,
		logs:      c.logs,
	}
	if err := child.execute(ix.ProgramID(), infos, data); err != nil {
		return err
	}

	// changes made by the callee are the caller's new baseline
	for _, info := range infos {
		c.pre[info.Key] = info.Account.Clone()
	}
	return nil
}

// execute dispatches to the program and enforces the platform's account rules
// on the frame once it returns
func (c *InvokeContext) execute(programID solana.PublicKey, infos []*AccountInfo, data []byte) error {
	program, ok := c.bank.programs[programID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedProgram, programID)
	}

	c.frame = make(map[solana.PublicKey]*AccountInfo, len(infos))
	c.pre = make(map[solana.PublicKey]*Account, len(infos))
	for _, info := range infos {
		if existing, ok := c.frame[info.Key]; ok {
			// duplicate references keep the strongest privileges
			existing.IsSigner = existing.IsSigner || info.IsSigner
			existing.IsWritable = existing.IsWritable || info.IsWritable
			continue
		}
		c.frame[info.Key] = &AccountInfo{
			Key:        info.Key,
			IsSigner:   info.IsSigner,
			IsWritable: info.IsWritable,
			Account:    info.Account,
		}
		c.pre[info.Key] = info.Account.Clone()
	}

	*c.logs = append(*c.logs, fmt.Sprintf("Program %s invoke [%d]", programID, c.depth+1))

	if err := program.Process(c, infos, data); err != nil {
		*c.logs = append(*c.logs, fmt.Sprintf("Program %s failed: %v", programID, err))
		return err
	}

	if err := c.verifyFrame(); err != nil {
		*c.logs = append(*c.logs, fmt.Sprintf("Program %s failed: %v", programID, err))
		return err
	}

	*c.logs = append(*c.logs, fmt.Sprintf("Program %s success", programID))
	return nil
}

// verifyFrame checks ownership, writability and lamport conservation of
// everything the program touched
func (c *InvokeContext) verifyFrame() error {
	var before, after uint64

	for key, info := range c.frame {
		pre := c.pre[key]
		post := info.Account
		before += pre.Lamports
		after += post.Lamports

		if pre.equal(post) {
			continue
		}
		if !info.IsWritable {
			if post.Lamports != pre.Lamports {
				return fmt.Errorf("%w: %s", ErrReadonlyLamportChange, key)
			}
			return fmt.Errorf("%w: %s", ErrReadonlyDataModified, key)
		}

		owned := pre.Owner.Equals(c.programID)
		if !post.Owner.Equals(pre.Owner) && !owned {
			return fmt.Errorf("%w: %s", ErrModifiedProgramID, key)
		}
		if !owned && !equalBytes(pre.Data, post.Data) {
			return fmt.Errorf("%w: %s", ErrExternalAccountDataModified, key)
		}
		if !owned && post.Lamports < pre.Lamports {
			return fmt.Errorf("%w: %s", ErrExternalLamportSpend, key)
		}
	}

	if before != after {
		return ErrUnbalancedInstruction
	}
	return nil
}

func equalBytes(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
