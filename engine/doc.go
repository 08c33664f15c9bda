// Package engine runs WebAssembly guests against exported function modules
// with wazero.
//
// A guest's linear memory holds the host heap: the engine lays out a
// heap.Arena in the guest's exported memory and gives each instance its own
// bridge.Chain. Exported function modules are installed as wazero host
// modules whose functions take and return i64 heap words; a host call looks
// up the calling instance by name and runs the export against that
// instance's chain.
//
// # Usage
//
//	eng, err := engine.New(ctx, nil)
//	if err != nil {
//		return err
//	}
//	defer eng.Close(ctx)
//
//	if err := eng.Bind(ctx, natives.New(os.Stdout)); err != nil {
//		return err
//	}
//	inst, err := eng.InstantiateGuest(ctx, "guest", natives.ModuleName)
//	if err != nil {
//		return err
//	}
//	out, err := inst.Call(ctx, "inc", layout.EncodeInt(41))
//
// # Contract violations
//
// A contract violation in a host function panics; wazero turns the panic
// into an error returned from the guest call. The instance's roots chain is
// left unbalanced, so the instance refuses further calls.
//
// # Thread Safety
//
// Engine methods are safe for concurrent use. An Instance is not.
package engine
