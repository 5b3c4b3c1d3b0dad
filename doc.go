/*
Package msquare is the backend and tooling of the MSquare Architects site.

It bundles three things behind one Site value:

  - the contact form: validation, HTML email rendering and delivery through Resend;
  - the portfolio: projects with ordered image and video media, stored in memory or Redis,
    with media objects on the local filesystem;
  - the scroll-stack engine (package scrollstack) that drives the "stacking cards" effect
    of the portfolio page, previewable in a terminal with `msquare preview`.

# Usage

	cfg, err := config.Load("msquare.yaml")
	if err != nil {
		log.Fatal(err)
	}
	site, err := msquare.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer site.Close()

	handler, err := site.Handler()
	if err != nil {
		log.Fatal(err)
	}
	log.Fatal(http.ListenAndServe(":8080", handler))

The same services are reachable by AI agents through site.MCP().
*/
package msquare
