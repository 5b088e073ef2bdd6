// Command mixverify is the independent verifier: given a proof directory
// and a group description, it re-derives every challenge and generator the
// way a mix server would and re-checks the recorded proofs without talking
// to any party. Exit code is 0 iff every check the subcommand and flags
// enable succeeds.
//
// Grounded on the teacher's own examples/ binaries' flag-driven, single
// purpose CLI shape (e.g. examples/ckks/bootstrapping), adapted to a
// subcommand dispatch since this verifier has four distinct entry points
// (mix/shuffle/decrypt/sloppy) rather than one.
package main

import (
	"flag"
	"fmt"
	"math/big"
	"os"

	"github.com/tuneinsight-mixnet/mixnet/group/modp"
	"github.com/tuneinsight-mixnet/mixnet/igs"
	"github.com/tuneinsight-mixnet/mixnet/internal/xlog"
	"github.com/tuneinsight-mixnet/mixnet/nizkp"
	"github.com/tuneinsight-mixnet/mixnet/params"
)

const (
	demoP = "a7" // 167
	demoQ = "53" // 83
	demoG = "4"
)

func main() {
	if len(os.Args) < 3 {
		usage()
		os.Exit(2)
	}
	sub := os.Args[1]
	path := os.Args[2]

	fs := flag.NewFlagSet("mixverify "+sub, flag.ExitOnError)
	k := fs.Int("k", 3, "number of mix servers")
	t := fs.Int("t", 2, "decryption/shuffle threshold")
	auxsid := fs.String("auxsid", "demo1", "auxiliary session id the proof directory was built under")
	width := fs.Int("width", 0, "required ciphertext width (0 skips the check)")
	noPoSC := fs.Bool("noposc", false, "skip PoSC checks")
	noCCPoS := fs.Bool("noccpos", false, "skip CCPoS checks")
	noPoS := fs.Bool("nopos", false, "skip PoS checks")
	noDec := fs.Bool("nodec", false, "skip decryption checks")
	pHex := fs.String("p", demoP, "group modulus p, hex")
	qHex := fs.String("q", demoQ, "group order q, hex")
	gHex := fs.String("g", demoG, "group generator g, hex")
	sid := fs.String("sid", "mixnetd", "session id the proof directory was built under")
	logLevel := fs.String("log-level", "info", "debug|info|warn|error")
	if err := fs.Parse(os.Args[3:]); err != nil {
		os.Exit(2)
	}
	xlog.Init(*logLevel)
	log := xlog.L()

	var subcmd nizkp.Subcommand
	switch sub {
	case "mix":
		subcmd = nizkp.SubMix
	case "shuffle":
		subcmd = nizkp.SubShuffle
	case "decrypt":
		subcmd = nizkp.SubDecrypt
	case "sloppy":
		subcmd = nizkp.SubSloppy
	default:
		usage()
		os.Exit(2)
	}

	p, ok := new(big.Int).SetString(*pHex, 16)
	if !ok {
		log.Error().Msg("mixverify: invalid -p")
		os.Exit(1)
	}
	q, ok := new(big.Int).SetString(*qHex, 16)
	if !ok {
		log.Error().Msg("mixverify: invalid -q")
		os.Exit(1)
	}
	g, ok := new(big.Int).SetString(*gHex, 16)
	if !ok {
		log.Error().Msg("mixverify: invalid -g")
		os.Exit(1)
	}
	grp, err := modp.NewGroup(p, q, g)
	if err != nil {
		log.Error().Err(err).Msg("mixverify: building group")
		os.Exit(1)
	}

	lit := params.GlobalParamsLiteral{
		K: *k, T: *t, Group: grp,
		StatDistBits: 40, ChallengeBits: 128, BatchBits: 128,
		Sid: *sid, Auxsid: *auxsid,
	}
	gp, err := params.NewGlobalParams(lit)
	if err != nil {
		log.Error().Err(err).Msg("mixverify: building params")
		os.Exit(1)
	}

	opts := nizkp.Options{
		Sub: subcmd, Auxsid: *auxsid, Width: *width,
		NoPoSC: *noPoSC, NoCCPoS: *noCCPoS, NoPoS: *noPoS, NoDec: *noDec,
	}
	if err := nizkp.Verify(path, gp, igs.HashSource{}, opts); err != nil {
		log.Error().Err(err).Str("dir", path).Msg("mixverify: verification failed")
		fmt.Fprintf(os.Stderr, "FAIL: %v\n", err)
		os.Exit(1)
	}
	log.Info().Str("dir", path).Str("sub", sub).Msg("mixverify: all enabled checks passed")
	fmt.Println("OK")
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: mixverify <mix|shuffle|decrypt|sloppy> <proof-dir> [flags]")
	flag.PrintDefaults()
}
