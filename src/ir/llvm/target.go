package llvm

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"tinygo.org/x/go-llvm"

	"github.com/Microindole/lency-sub000/src/util"
)

// genTargetTriple builds an LLVM target triple from opt, falling back to
// the host's default triple when no architecture was requested.
func genTargetTriple(opt *util.Options) (llvm.Target, string, error) {
	sb := strings.Builder{}
	var triple string

	if opt.TargetArch == util.UnknownArch {
		triple = llvm.DefaultTargetTriple()
	} else {
		sb.Grow(20)
		switch opt.TargetArch {
		case util.Aarch64:
			sb.WriteString("aarch64")
		case util.Riscv64:
			sb.WriteString("riscv64")
		case util.Riscv32:
			sb.WriteString("riscv32")
		case util.X86_64:
			sb.WriteString("x86_64")
		case util.X86_32:
			sb.WriteString("x86")
		default:
			return llvm.Target{}, "", fmt.Errorf("unsupported target architecture identifier %d", opt.TargetArch)
		}
		sb.WriteRune('-')

		switch opt.TargetVendor {
		case util.PC, util.UnknownVendor:
			sb.WriteString("pc")
		case util.Apple:
			sb.WriteString("apple")
		case util.IBM:
			sb.WriteString("ibm")
		default:
			return llvm.Target{}, "", fmt.Errorf("unsupported target vendor identifier %d", opt.TargetVendor)
		}
		sb.WriteRune('-')

		if opt.TargetOS > 0 {
			switch opt.TargetOS {
			case util.Linux:
				sb.WriteString("linux")
			case util.Windows:
				sb.WriteString("win32")
			case util.MAC:
				sb.WriteString("darwin")
			default:
				return llvm.Target{}, "", fmt.Errorf("unsupported target operating system identifier %d", opt.TargetOS)
			}
		} else {
			sb.WriteString("none")
		}
		sb.WriteRune('-')
		sb.WriteString("gnu")

		triple = sb.String()
	}

	if opt.Verbose {
		fmt.Printf("compiling for target %s\n", triple)
	}
	llvm.InitializeAllTargets()
	tt, err := llvm.GetTargetFromTriple(triple)
	if err != nil {
		return llvm.Target{}, "", err
	}
	return tt, triple, nil
}

// EmitObject compiles module for the target described by opt and writes the
// resulting object file to opt.Out (or `<src base name>.o` in the current
// working directory when unset).
func EmitObject(opt util.Options, module llvm.Module) error {
	if opt.Verbose {
		fmt.Println("LLVM IR:")
		module.Dump()
	}

	llvm.InitializeAllTargetInfos()
	llvm.InitializeAllTargetMCs()
	llvm.InitializeAllAsmParsers()
	llvm.InitializeAllAsmPrinters()

	t, tt, err := genTargetTriple(&opt)
	if err != nil {
		return err
	}

	var cpu string
	switch opt.TargetArch {
	case util.Riscv64:
		cpu = "generic-rv64"
	case util.Riscv32:
		cpu = "generic-rv32"
	default:
		cpu = "generic"
	}

	tm := t.CreateTargetMachine(tt, cpu, "", llvm.CodeGenLevelNone, llvm.RelocDefault, llvm.CodeModelDefault)
	defer tm.Dispose()

	td := tm.CreateTargetData()
	defer td.Dispose()

	module.SetDataLayout(td.String())
	module.SetTarget(tm.Triple())

	buf, err := tm.EmitToMemoryBuffer(module, llvm.ObjectFile)
	if err != nil {
		return err
	}
	if buf.IsNil() {
		return errors.New("could not emit compiled code to memory")
	}

	out := opt.Out
	if out == "" {
		out = fmt.Sprintf("./%s.o", strings.TrimSuffix(filepath.Base(opt.Src), filepath.Ext(opt.Src)))
	}

	fd, err := os.OpenFile(out, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0755)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := fd.Close(); cerr != nil {
			fmt.Println(cerr)
		}
	}()
	if _, err := fd.Write(buf.Bytes()); err != nil {
		return err
	}
	return nil
}
