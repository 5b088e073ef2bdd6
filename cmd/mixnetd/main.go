// Command mixnetd runs a complete mix-net session — distributed key
// generation, an optional pre-computation, a k-party shuffle and a
// threshold decryption — in a single process, every party driven by its
// own goroutine over a shared in-memory bulletin board. It writes the
// resulting proof directory for nizkp's independent verifier to check.
//
// Grounded on the teacher's own examples/ binaries (e.g.
// examples/dbfv/psi/main.go): a flag-configured, single-process simulation
// of an otherwise distributed protocol, with per-phase timing reported at
// the end.
package main

import (
	"context"
	"crypto/rand"
	"flag"
	"fmt"
	"math/big"
	"os"
	"sync"
	"time"

	"github.com/tuneinsight-mixnet/mixnet/bboard"
	"github.com/tuneinsight-mixnet/mixnet/bboard/local"
	"github.com/tuneinsight-mixnet/mixnet/challenger"
	"github.com/tuneinsight-mixnet/mixnet/dkg"
	"github.com/tuneinsight-mixnet/mixnet/group"
	"github.com/tuneinsight-mixnet/mixnet/group/modp"
	"github.com/tuneinsight-mixnet/mixnet/igs"
	"github.com/tuneinsight-mixnet/mixnet/internal/diag"
	"github.com/tuneinsight-mixnet/mixnet/internal/xlog"
	"github.com/tuneinsight-mixnet/mixnet/mixnet"
	"github.com/tuneinsight-mixnet/mixnet/nizkp"
	"github.com/tuneinsight-mixnet/mixnet/params"
	"github.com/tuneinsight-mixnet/mixnet/polyexp"
	"github.com/tuneinsight-mixnet/mixnet/shuffle"
	"github.com/tuneinsight-mixnet/mixnet/vss"
)

// Demo modulus matching spec section 8's test vector group: p = 2q+1,
// q = 83, g a generator of the order-q subgroup. Production deployments
// supply a cryptographically sized triple via -p/-q/-g.
const (
	demoP = "a7" // 167
	demoQ = "53" // 83
	demoG = "4"
)

func main() {
	k := flag.Int("k", 3, "number of mix servers")
	t := flag.Int("t", 2, "decryption/shuffle threshold")
	width := flag.Int("width", 4, "number of ciphertexts to mix")
	auxsid := flag.String("auxsid", "demo1", "auxiliary session id")
	precomp := flag.Bool("precomp", true, "use the shuffle pre-computation path")
	out := flag.String("out", "mixnet-proof", "proof directory to write")
	pHex := flag.String("p", demoP, "group modulus p, hex")
	qHex := flag.String("q", demoQ, "group order q, hex")
	gHex := flag.String("g", demoG, "group generator g, hex")
	logLevel := flag.String("log-level", "info", "debug|info|warn|error")
	flag.Parse()
	xlog.Init(*logLevel)
	log := xlog.L()

	if err := run(*k, *t, *width, *auxsid, *precomp, *out, *pHex, *qHex, *gHex); err != nil {
		log.Error().Err(err).Msg("mixnetd: run failed")
		os.Exit(1)
	}
}

func run(k, t, width int, auxsid string, precomp bool, out, pHex, qHex, gHex string) error {
	log := xlog.L()

	p, ok := new(big.Int).SetString(pHex, 16)
	if !ok {
		return fmt.Errorf("mixnetd: invalid -p")
	}
	q, ok := new(big.Int).SetString(qHex, 16)
	if !ok {
		return fmt.Errorf("mixnetd: invalid -q")
	}
	g, ok := new(big.Int).SetString(gHex, 16)
	if !ok {
		return fmt.Errorf("mixnetd: invalid -g")
	}
	grp, err := modp.NewGroup(p, q, g)
	if err != nil {
		return fmt.Errorf("mixnetd: building group: %w", err)
	}

	lit := params.GlobalParamsLiteral{
		K: k, T: t, Group: grp,
		StatDistBits: 40, ChallengeBits: 128, BatchBits: 128,
		Sid: "mixnetd", Auxsid: auxsid,
	}
	gp, err := params.NewGlobalParams(lit)
	if err != nil {
		return fmt.Errorf("mixnetd: building params: %w", err)
	}
	ch, err := gp.NewChallenger()
	if err != nil {
		return fmt.Errorf("mixnetd: building challenger: %w", err)
	}

	gen := igs.HashSource{}
	hGens, err := gen.Generators(grp, []byte("pedersen-h|"+auxsid), 1)
	if err != nil {
		return fmt.Errorf("mixnetd: deriving pedersen generator: %w", err)
	}
	phi := group.PedersenGenHomomorphism{G: grp, H: hGens[0]}

	board := local.New()

	timings := map[string]*diag.Phase{
		"keygen":  diag.NewPhase("keygen"),
		"precomp": diag.NewPhase("precomp"),
		"shuffle": diag.NewPhase("shuffle"),
		"decrypt": diag.NewPhase("decrypt"),
	}

	log.Info().Int("k", k).Int("t", t).Int("width", width).Bool("precomp", precomp).Msg("starting session")

	pks, sks, err := buildChannelKeys(grp, k)
	if err != nil {
		return err
	}

	keyShares, yShares, pub, commitments, err := runKeyGen(grp, phi, k, t, auxsid, board, sks, pks, timings["keygen"])
	if err != nil {
		return fmt.Errorf("mixnetd: key generation: %w", err)
	}
	log.Info().Msg("distributed key generation complete")

	plaintexts := make([]group.Element, width)
	input := make([]dkg.Ciphertext, width)
	for i := range input {
		m := grp.Generator().Exp(grp.Ring().FromUint64(uint64(i + 2)))
		plaintexts[i] = m
		ct, err := dkg.Encrypt(pub, m, rand.Reader)
		if err != nil {
			return fmt.Errorf("mixnetd: encrypting input %d: %w", i, err)
		}
		input[i] = ct
	}

	sessions := make([]*mixnet.Session, k+1)
	for l := 1; l <= k; l++ {
		sessions[l] = mixnet.NewSession(gp, board, l)
	}

	if precomp {
		if err := timings["precomp"].Timed(func() error {
			return runPrecomp(sessions, grp, gen, k, width, gp.StatDistBits())
		}); err != nil {
			return fmt.Errorf("mixnetd: precomp: %w", err)
		}
		log.Info().Msg("pre-computation complete")
	}

	var shuffleManifest mixnet.Manifest
	if err := timings["shuffle"].Timed(func() error {
		var err error
		shuffleManifest, err = runShuffle(context.Background(), sessions, k, t, ch, gen, grp, pub, input)
		return err
	}); err != nil {
		return fmt.Errorf("mixnetd: shuffle: %w", err)
	}
	log.Info().Int("width", len(shuffleManifest.Intermediate)).Msg("shuffle complete")

	var decManifest mixnet.Manifest
	var partyDF map[int][]group.Element
	var partyCR map[int]dkg.CRProof
	if err := timings["decrypt"].Timed(func() error {
		var err error
		decManifest, partyDF, partyCR, err = runDecrypt(sessions[1], grp, ch, yShares, keyShares, t, k, shuffleManifest.Intermediate, plaintexts)
		return err
	}); err != nil {
		return fmt.Errorf("mixnetd: decrypt: %w", err)
	}
	log.Info().Msg("threshold decryption complete")

	for _, ph := range timings {
		if summary, err := ph.Summarize(); err == nil {
			log.Info().Str("phase", summary.Name).Str("summary", summary.String()).Msg("timing")
		}
	}

	sp, err := assembleProof(grp, auxsid, width, k, t, input, shuffleManifest.Intermediate, decManifest.Plaintexts,
		pub, commitments, partyDF, partyCR, board)
	if err != nil {
		return fmt.Errorf("mixnetd: assembling proof directory: %w", err)
	}
	if err := nizkp.Write(nizkp.Open(out), sp); err != nil {
		return fmt.Errorf("mixnetd: writing proof directory: %w", err)
	}
	log.Info().Str("dir", out).Msg("proof directory written")
	return nil
}

func buildChannelKeys(grp group.Group, k int) (pks map[int]group.Element, sks map[int]group.RingElement, err error) {
	pks = make(map[int]group.Element, k)
	sks = make(map[int]group.RingElement, k)
	for i := 1; i <= k; i++ {
		rk, err := vss.NewReceiverKey(grp, rand.Reader)
		if err != nil {
			return nil, nil, fmt.Errorf("mixnetd: building channel key %d: %w", i, err)
		}
		pks[i] = rk.Pub
		sks[i] = rk.Private
	}
	return pks, sks, nil
}

// runKeyGen drives the (t,k) Pedersen-sequential VSS for every party
// concurrently over the shared board, then derives the joint public key.
// It returns every party's secret-key share, the per-party public key
// shares needed for threshold decryption's CR proof, the joint public key,
// and the aggregate commitment polynomial recorded in the proof directory.
func runKeyGen(grp group.Group, phi group.PedersenHomomorphism, k, t int, auxsid string, board bboard.Board,
	sks map[int]group.RingElement, pks map[int]group.Element, ph *diag.Phase) (map[int]group.RingElement, map[int]map[int]group.Element, dkg.PublicKey, polyexp.PolyInExp, error) {

	keyShares := make(map[int]group.RingElement, k)
	yShares := make(map[int]map[int]group.Element, k)
	var pub dkg.PublicKey
	var commitments polyexp.PolyInExp

	var wg sync.WaitGroup
	errs := make([]error, k+1)
	var mu sync.Mutex
	start := time.Now()
	for self := 1; self <= k; self++ {
		wg.Add(1)
		go func(self int) {
			defer wg.Done()
			perDealer := make([]vss.PedersenShare, t)
			for d := 1; d <= t; d++ {
				var sess *vss.Session
				if d == self {
					secret, err := grp.Ring().Random(rand.Reader)
					if err != nil {
						errs[self] = err
						return
					}
					sess, err = vss.NewDealerSession(grp, phi, phi.(group.PedersenGenHomomorphism).H, k, t, self,
						vss.Label{Sid: "mixnetd", Auxsid: auxsid, Dealer: d}, board, sks[self], pks, secret, rand.Reader)
					if err != nil {
						errs[self] = err
						return
					}
					if err := sess.Deal(rand.Reader); err != nil {
						errs[self] = err
						return
					}
				} else {
					sess = vss.NewReceiverSession(grp, phi, k, t, self, d,
						vss.Label{Sid: "mixnetd", Auxsid: auxsid, Dealer: d}, board, sks[self], pks)
				}
				share, err := sess.ReceiveAndVerify(context.Background())
				if err != nil {
					errs[self] = fmt.Errorf("dealer %d: %w", d, err)
					return
				}
				perDealer[d-1] = share
			}
			localPub, secretShare, shares, err := dkg.KeyGen(grp, perDealer, t)
			if err != nil {
				errs[self] = err
				return
			}
			aggregate, err := vss.Collapse(grp, perDealer)
			if err != nil {
				errs[self] = err
				return
			}
			mu.Lock()
			keyShares[self] = secretShare
			yShares[self] = shares
			pub = localPub
			commitments = aggregate.Commitments
			mu.Unlock()
		}(self)
	}
	wg.Wait()
	ph.Record(time.Since(start))
	for _, err := range errs {
		if err != nil {
			return nil, nil, dkg.PublicKey{}, polyexp.PolyInExp{}, err
		}
	}
	return keyShares, yShares, pub, commitments, nil
}

func runPrecomp(sessions []*mixnet.Session, grp group.Group, gen igs.Source, k, width, rho int) error {
	var wg sync.WaitGroup
	errs := make([]error, k+1)
	for l := 1; l <= k; l++ {
		wg.Add(1)
		go func(l int) {
			defer wg.Done()
			errs[l] = sessions[l].Precomp(gen, grp.Generator(), width, rho, rand.Reader)
		}(l)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func runShuffle(ctx context.Context, sessions []*mixnet.Session, k, t int, ch *challenger.Challenger, gen igs.Source,
	grp group.Group, pub dkg.PublicKey, input []dkg.Ciphertext) (mixnet.Manifest, error) {

	keepList := make([]bool, len(input))
	for i := range keepList {
		keepList[i] = true
	}
	var wg sync.WaitGroup
	manifests := make([]mixnet.Manifest, k+1)
	errs := make([]error, k+1)
	for l := 1; l <= k; l++ {
		wg.Add(1)
		go func(l int) {
			defer wg.Done()
			m, err := sessions[l].Shuffle(ctx, ch, gen, grp.Generator(), pub.Y, t, input, keepList, rand.Reader)
			manifests[l] = m
			errs[l] = err
		}(l)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return mixnet.Manifest{}, err
		}
	}
	return manifests[k], nil
}

func runDecrypt(session *mixnet.Session, grp group.Group, ch *challenger.Challenger, yShares map[int]map[int]group.Element,
	keyShares map[int]group.RingElement, t, k int, ciphertexts []dkg.Ciphertext, plaintexts []group.Element) (mixnet.Manifest, map[int][]group.Element, map[int]dkg.CRProof, error) {

	dfByParty := make(map[int][]group.Element, t)
	crByParty := make(map[int]dkg.CRProof, t)
	correct := make(map[int]bool, t)
	for l := 1; l <= t; l++ {
		df := dkg.DecryptionFactors(keyShares[l], ciphertexts)
		yl := yShares[l][l]
		proof, err := dkg.ProveCR(grp, ch, yl, ciphertexts, df, keyShares[l], rand.Reader)
		if err != nil {
			return mixnet.Manifest{}, nil, nil, fmt.Errorf("party %d: proving CR: %w", l, err)
		}
		dfByParty[l] = df
		crByParty[l] = proof
		correct[l] = true
	}
	plain, err := dkg.ThresholdDecrypt(grp, t, ciphertexts, dfByParty, correct)
	if err != nil {
		return mixnet.Manifest{}, nil, nil, err
	}
	remaining := make(map[string]int, len(plaintexts))
	for _, p := range plaintexts {
		remaining[string(p.Bytes())]++
	}
	for i, p := range plain {
		key := string(p.Bytes())
		if remaining[key] == 0 {
			return mixnet.Manifest{}, nil, nil, fmt.Errorf("decrypted plaintext %d does not match any original input", i)
		}
		remaining[key]--
	}
	manifest, err := session.Decrypt(ciphertexts, plain)
	if err != nil {
		return mixnet.Manifest{}, nil, nil, err
	}
	return manifest, dfByParty, crByParty, nil
}

func assembleProof(grp group.Group, auxsid string, width, k, t int, input, shuffled []dkg.Ciphertext,
	plaintexts []group.Element, pub dkg.PublicKey, commitments polyexp.PolyInExp,
	dfByParty map[int][]group.Element, crByParty map[int]dkg.CRProof,
	board bboard.Board) (nizkp.SessionProofs, error) {

	parties := make(map[int]nizkp.PartyProof, k)
	for l := 1; l <= k; l++ {
		party := nizkp.PartyProof{}
		if commitRaw, ok := board.TryGet(l, shuffle.TagCommitment); ok {
			u, err := nizkp.ElementsFromBytes(commitRaw, grp)
			if err != nil {
				return nizkp.SessionProofs{}, fmt.Errorf("party %d: decoding permutation commitment: %w", l, err)
			}
			party.PermComm = u
		}
		outRaw, ok := board.TryGet(l, shuffle.TagOutput)
		if !ok {
			continue
		}
		output, err := nizkp.CiphertextsFromBytes(outRaw, grp)
		if err != nil {
			return nizkp.SessionProofs{}, fmt.Errorf("party %d: decoding shuffle output: %w", l, err)
		}
		if l < k {
			party.Ciphertexts = output
		}
		proofRaw, ok := board.TryGet(l, shuffle.TagProof)
		if !ok {
			continue
		}
		if party.PermComm != nil {
			commit, reply, err := nizkp.CCPoSProofFromBytes(proofRaw, grp, width)
			if err != nil {
				return nizkp.SessionProofs{}, fmt.Errorf("party %d: decoding CCPoS proof: %w", l, err)
			}
			party.CCPoSCommit, party.CCPoSReply = &commit, &reply
			if poscRaw, ok := board.TryGet(l, shuffle.TagPoSCProof); ok {
				poscCommit, poscReply, err := nizkp.PoSCProofFromBytes(poscRaw, grp, width)
				if err != nil {
					return nizkp.SessionProofs{}, fmt.Errorf("party %d: decoding PoSC proof: %w", l, err)
				}
				party.PoSCCommit, party.PoSCReply = &poscCommit, &poscReply
			}
		} else {
			commit, reply, err := nizkp.PoSProofFromBytes(proofRaw, grp, width)
			if err != nil {
				return nizkp.SessionProofs{}, fmt.Errorf("party %d: decoding PoS proof: %w", l, err)
			}
			party.PoSCommit, party.PoSReply = &commit, &reply
		}
		if l <= t {
			party.DecFactors = dfByParty[l]
			proof := crByParty[l]
			party.DFProof = &proof
		}
		parties[l] = party
	}

	correctIdx := make([]bool, k+1)
	for l := 1; l <= t; l++ {
		correctIdx[l] = true
	}

	return nizkp.SessionProofs{
		Version: params.Version, Auxsid: auxsid, Type: mixnet.TypeMixing, Width: width,
		Input: input, Shuffled: shuffled, Plaintexts: plaintexts,
		PublicKey: pub, Commitments: commitments,
		ActiveThreshold: k, Parties: parties, CorrectIndices: correctIdx,
	}, nil
}

