package orient

// Fixed rotation matrices between reference-epoch orientations that do
// not depend on the date of evaluation, in the texture of goeph's
// coord/frames.go (GalacticMatrix, B1950Matrix): constant tables baked
// in at compile time. Values from beyond's frames.orient module
// (original_source beyond/frames/orient.py, G50_to_EME2000 and
// GCRF_to_EME2000).

var g50ToEME2000 = Rot3{
	{0.9999256794956877, -0.0111814832204662, -0.0048590038153592},
	{0.0111814832391717, 0.9999374848933135, -0.0000271625947142},
	{0.0048590037723143, -0.0000271702937440, 0.9999881946023742},
}

var gcrfToEME2000 = Rot3{
	{0.9999999999999942, 0.0000000707827948, -0.0000000805621738},
	{-0.0000000707827974, 0.9999999999999969, -0.0000000330604088},
	{0.0000000805621715, 0.0000000330604145, 0.9999999999999962},
}
