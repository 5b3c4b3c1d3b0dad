/*
Package domain contains the business entities of the msquare site.

It is kept pure and free of I/O: adapters and services in other packages persist and transport these types.

# Key Entities

  - Project: a portfolio entry (construction, reconstruction or renovation work) with its ordered media.
  - Media: an image or video attached to a project, ordered by DisplayOrder.
  - ContactForm: a visitor's enquiry, validated before it becomes an Email.
  - Email: a rendered message handed to a Mailer.
*/
package domain
