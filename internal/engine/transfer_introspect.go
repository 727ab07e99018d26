// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package engine

import (
	"encoding/hex"
	"fmt"

	"github.com/dgpv/bsst/internal/value"
	"github.com/dgpv/bsst/txscript"
)

// introspectField returns the stable model variable standing in for a named
// transaction-level field (Elements' INSPECT*-family opcodes and the
// BIP65/BIP112 locktime/sequence checks). Hash-consing means every
// reference to the same field name across a path, and across sibling paths,
// resolves to the identical *value.Value, so the solver sees one variable
// per field rather than one per occurrence.
func introspectField(name string) *value.Value {
	return value.NewOp(value.KindIntrospect, value.NewLiteral([]byte(name)))
}

// introspectOps are the Elements opcodes modeled as a bare field lookup:
// push one model value, consume nothing from the stack.
var introspectOps = map[string]string{
	"INSPECTVERSION":     "tx.nVersion",
	"INSPECTLOCKTIME":    "tx.nLockTime",
	"INSPECTNUMINPUTS":   "tx.vin.count",
	"INSPECTNUMOUTPUTS":  "tx.vout.count",
	"TXWEIGHT":           "tx.weight",
	"CURRENTINPUTINDEX":  "tx.current_input_index",
	"CURRENTSCRIPTHASH":  "tx.current_script_hash",
}

// indexedIntrospectOps are the Elements opcodes that take an input/output
// index off the stack and push the requested field of that input/output.
var indexedIntrospectOps = map[string]string{
	"INSPECTINPUTOUTPOINT":     "tx.vin.outpoint",
	"INSPECTINPUTASSET":        "tx.vin.asset",
	"INSPECTINPUTVALUE":        "tx.vin.value",
	"INSPECTINPUTSCRIPTPUBKEY": "tx.vin.scriptpubkey",
	"INSPECTINPUTSEQUENCE":     "tx.vin.sequence",
	"INSPECTINPUTISSUANCE":     "tx.vin.issuance",
	"INSPECTOUTPUTASSET":       "tx.vout.asset",
	"INSPECTOUTPUTVALUE":       "tx.vout.value",
	"INSPECTOUTPUTNONCE":       "tx.vout.nonce",
	"INSPECTOUTPUTSCRIPTPUBKEY": "tx.vout.scriptpubkey",
}

func registerIntrospectOps() {
	for name, field := range introspectOps {
		register(name, introspectLookup(field))
	}
	for name, field := range indexedIntrospectOps {
		register(name, introspectIndexed(field))
	}
	register("TXHASH", transferTxHash)
}

func introspectLookup(field string) TransferFunc {
	return func(en *Engine, ctx *Context, pos int) ([]Fork, error) {
		pushResult(ctx, introspectField(field), pos)
		return nil, nil
	}
}

func introspectIndexed(field string) TransferFunc {
	return func(en *Engine, ctx *Context, pos int) ([]Fork, error) {
		idx, err := ctx.Pop()
		if err != nil {
			return badArgs(ctx, "inspect", err.Error())
		}
		ctx.ConsumeValue(idx)
		pushResult(ctx, value.NewOp(value.KindIntrospect, value.NewLiteral([]byte(field)), idx), pos)
		return nil, nil
	}
}

// transferTxHash models the field-selector transaction hash opcode: the top
// of stack is a byte string selecting which transaction components (version,
// locktime, the current input's outpoint/sequence/scriptSig, one or more
// whole inputs or outputs, ...) are folded into the hash. Grounded on the
// kept txscript package's own field-selector codec
// (txscript.NewTxFieldSelectorFromBytes / (*TxFieldSelector).ToBytes in
// txscript/txhash.go): this reuses that parser to validate the selector's
// encoding and to canonicalize it, rather than computing an actual digest
// over a concrete transaction the tracer does not have. Two selector byte
// strings that canonicalize to the same bytes name the same model variable;
// two that don't are modeled as independent, since nothing short of an
// actual collision makes their hashes equal.
func transferTxHash(en *Engine, ctx *Context, pos int) ([]Fork, error) {
	sel, ok := popOperand(ctx, "txhash")
	if !ok {
		return nil, nil
	}

	raw, isStatic := sel.AsBytes()
	if !isStatic {
		// A symbolic selector cannot be decoded or canonicalized without a
		// solver; model it as an opaque, selector-keyed field the same way
		// the indexed INSPECT* opcodes key on a symbolic index (spec.md
		// §4.2 "failures... detected only if a static contradiction is
		// visible").
		pushResult(ctx, value.NewOp(value.KindIntrospect, value.NewLiteral([]byte("tx.txhash")), sel), pos)
		return nil, nil
	}

	fs, err := txscript.NewTxFieldSelectorFromBytes(raw, nil, nil)
	if err != nil {
		return badArgs(ctx, "txhash", err.Error())
	}
	canonical, err := fs.ToBytes()
	if err != nil {
		return badArgs(ctx, "txhash", err.Error())
	}
	if en.Opts.MinimalData && string(canonical) != string(raw) {
		return badArgs(ctx, "txhash", "tx field selector is not minimally encoded")
	}

	field := fmt.Sprintf("tx.txhash:%s", hex.EncodeToString(canonical))
	pushResult(ctx, introspectField(field), pos)
	return nil, nil
}
